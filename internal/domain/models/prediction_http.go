package models

// Requests for the prediction HTTP endpoints. Defined in domain for consistency and reuse.

type PredictRequest struct {
	Ticker string `json:"ticker" validate:"required,min=1,max=10"`
}

type PredictResponse struct {
	Ticker         string        `json:"ticker"`
	Proba          float64       `json:"proba"`
	Signal         int           `json:"signal"`
	Features       FeatureVector `json:"calculated_features"`
	ModelTimestamp string        `json:"model_timestamp"`
}

type ModelInfoResponse struct {
	Features           []string `json:"features"`
	Threshold          float64  `json:"threshold"`
	Tickers            []string `json:"tickers"`
	LastTrainDate      string   `json:"last_train_date"`
	SentimentAvailable bool     `json:"sentiment_available"`
}
