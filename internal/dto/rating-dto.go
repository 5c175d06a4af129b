package dto

// SubmitRatingDTO — отправка оценки по завершённому заказу.
type SubmitRatingDTO struct {
	OrderID         uint64 `json:"order_id" validate:"required,gt=0"`
	Type            string `json:"type" validate:"required,oneof=client_to_master master_to_client"`
	OverallRating   int    `json:"overall_rating" validate:"required,min=1,max=5"`
	Professionalism int    `json:"professionalism" validate:"omitempty,min=1,max=5"`
	Punctuality     int    `json:"punctuality" validate:"omitempty,min=1,max=5"`
	Politeness      int    `json:"politeness" validate:"omitempty,min=1,max=5"`
	Feedback        string `json:"feedback" validate:"omitempty,max=2000"`
}

type RatingAggregateDTO struct {
	Average *float64 `json:"average"`
	Count   int      `json:"count"`
}
