package model

import (
	"time"

	"github.com/google/uuid"
)

// MaxTextLength is the longest kram text accepted, in characters.
const MaxTextLength = 160

type Message struct {
	ID             uuid.UUID
	Name           *string
	Text           string
	Receiver       *string
	Flag           bool
	SentimentScore float64
	CreatedAt      time.Time
}
