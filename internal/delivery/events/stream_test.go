package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jglobalproperties/estate_api/internal/domain"
)

func TestGenerateExponentialBackoff(t *testing.T) {
	assert.Nil(t, generateExponentialBackoff(1))
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, generateExponentialBackoff(3))
	assert.Len(t, generateExponentialBackoff(MaxDeliveryAttempts), MaxDeliveryAttempts-1)
}

func TestStreamSpecs(t *testing.T) {
	// Use cases publish on the domain subjects; the streams must capture them
	assert.Equal(t, domain.SubjectModeration, ModerationStream.Subject)
	assert.Equal(t, domain.SubjectNewsletter, NewsletterStream.Subject)
	assert.NotEqual(t, ModerationStream.Name, NewsletterStream.Name)
}
