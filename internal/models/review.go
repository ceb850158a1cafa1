package models

import "time"

type Review struct {
	ID          int64     `json:"id"`
	PatientID   int64     `json:"patient_id"`
	DoctorID    int64     `json:"doctor_id"`
	Rating      int       `json:"rating"`
	Comment     string    `json:"comment"`
	IsVerified  bool      `json:"is_verified"`
	PatientName string    `json:"patient_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ReviewStats struct {
	TotalReviews  int     `json:"total_reviews"`
	AverageRating float64 `json:"average_rating"`
	FiveStars     int     `json:"five_stars"`
	FourStars     int     `json:"four_stars"`
	ThreeStars    int     `json:"three_stars"`
	TwoStars      int     `json:"two_stars"`
	OneStars      int     `json:"one_stars"`
}
