package models

import (
	"reflect"
	"strings"
	"testing"
)

// The participant pair must carry a composite unique index: it is the only
// thing preventing two racing creates from producing duplicate threads.
func TestConversationPairIsUnique(t *testing.T) {
	typ := reflect.TypeOf(Conversation{})
	for _, field := range []string{"ClientID", "FreelancerID"} {
		f, ok := typ.FieldByName(field)
		if !ok {
			t.Fatalf("field %s missing", field)
		}
		if !strings.Contains(f.Tag.Get("gorm"), "uniqueIndex:uq_conversation_pair") {
			t.Fatalf("%s is not part of the conversation pair unique index: %q", field, f.Tag.Get("gorm"))
		}
	}
}
