package domain

import "context"

// Prediction is the classifier's verdict for one text.
type Prediction struct {
	Positive    bool
	Probability float64
	Score       float64
}

type Classifier interface {
	Classify(ctx context.Context, text string) (Prediction, error)
}
