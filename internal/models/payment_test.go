package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaymentStatus_Terminal(t *testing.T) {
	assert.False(t, PaymentPending.Terminal())
	assert.True(t, PaymentCompleted.Terminal())
	assert.True(t, PaymentFailed.Terminal())
}
