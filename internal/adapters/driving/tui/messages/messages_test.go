package messages

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/askdocs/internal/core/domain"
	"github.com/custodia-labs/askdocs/internal/core/ports/driving"
)

func TestAnswerReceived(t *testing.T) {
	t.Run("with answer", func(t *testing.T) {
		msg := AnswerReceived{
			Turn:     2,
			Question: "How long do refunds take?",
			Answer:   &domain.Answer{Text: "30 days."},
		}
		assert.Equal(t, 2, msg.Turn)
		assert.Equal(t, "30 days.", msg.Answer.Text)
		assert.NoError(t, msg.Err)
	})

	t.Run("with error", func(t *testing.T) {
		msg := AnswerReceived{Turn: 0, Err: domain.ErrModelUnavailable}
		assert.Nil(t, msg.Answer)
		assert.True(t, errors.Is(msg.Err, domain.ErrModelUnavailable))
	})
}

func TestIndexInfoLoaded(t *testing.T) {
	msg := IndexInfoLoaded{Info: driving.IndexInfo{Path: "/data/index", Count: 4}}
	assert.Equal(t, 4, msg.Info.Count)
}
