package util_test

import (
	"testing"

	"github.com/glizzus/jukebox/internal/util"
)

type member struct {
	userID    string
	channelID string
}

func TestFindFirst(t *testing.T) {
	states := []*member{
		{userID: "alice", channelID: "voice-1"},
		{userID: "bob", channelID: "voice-2"},
		{userID: "alice", channelID: "voice-3"},
	}
	byUser := func(id string) func(*member) bool {
		return func(m *member) bool { return m.userID == id }
	}

	tc := []struct {
		name      string
		slice     []*member
		predicate func(*member) bool
		channelID string
		found     bool
	}{
		{
			name:      "First match wins",
			slice:     states,
			predicate: byUser("alice"),
			channelID: "voice-1",
			found:     true,
		},
		{
			name:      "Match in the middle",
			slice:     states,
			predicate: byUser("bob"),
			channelID: "voice-2",
			found:     true,
		},
		{
			name:      "No match returns the zero value",
			slice:     states,
			predicate: byUser("carol"),
		},
		{
			name:      "Nil slice",
			predicate: byUser("alice"),
		},
	}

	for _, testCase := range tc {
		t.Run(testCase.name, func(t *testing.T) {
			got, found := util.FindFirst(testCase.slice, testCase.predicate)
			if found != testCase.found {
				t.Fatalf("expected found %v, got %v", testCase.found, found)
			}
			if !found {
				if got != nil {
					t.Errorf("expected nil member, got %+v", got)
				}
				return
			}
			if got.channelID != testCase.channelID {
				t.Errorf("expected channel %s, got %s", testCase.channelID, got.channelID)
			}
		})
	}
}
