package events

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jglobalproperties/estate_api/internal/pkg/logger"
)

func TestLoggingHandler(t *testing.T) {
	handler := LoggingHandler(logger.New("test"))

	tests := []struct {
		name    string
		subject string
		data    string
		wantErr bool
	}{
		{"moderation", SubjectModeration, `{"type":"review.submitted","parent_kind":"house","parent_id":"9b2f4c1e-54b8-4d8e-9a43-2f0c9c7ce2a1"}`, false},
		{"newsletter", SubjectNewsletter, `{"type":"newsletter.subscribed","email":"a@b.co"}`, false},
		{"other subject", "misc.events", `{"hello":"world"}`, false},
		{"bad moderation payload", SubjectModeration, `not json`, true},
		{"bad newsletter payload", SubjectNewsletter, `{"email":`, true},
		{"bad other payload", "misc.events", `nope`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := handler(tt.subject, []byte(tt.data))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestMessageID(t *testing.T) {
	a := messageID(SubjectModeration, []byte(`{"type":"review.submitted"}`))
	b := messageID(SubjectModeration, []byte(`{"type":"review.submitted"}`))
	c := messageID(SubjectNewsletter, []byte(`{"type":"review.submitted"}`))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 32)
}
