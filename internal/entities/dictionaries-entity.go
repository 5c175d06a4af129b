package entities

import (
	"github.com/aarondl/null/v8"
)

// DurationOption — допустимая длительность сеанса и её цена.
type DurationOption struct {
	ID      uint64 `json:"id" db:"id"`
	Minutes int    `json:"minutes" db:"minutes"`
	Price   int64  `json:"price" db:"price"`
	Active  bool   `json:"active" db:"active"`
}

type ServiceType struct {
	ID     uint64 `json:"id" db:"id"`
	Name   string `json:"name" db:"name"`
	Active bool   `json:"active" db:"active"`
}

type Oil struct {
	ID     uint64 `json:"id" db:"id"`
	Name   string `json:"name" db:"name"`
	Active bool   `json:"active" db:"active"`
}

type Customer struct {
	ID          uint64       `json:"id" db:"id"`
	FullName    string       `json:"full_name" db:"full_name"`
	Phone       string       `json:"phone" db:"phone"`
	Rating      null.Float64 `json:"rating" db:"rating"`
	RatingCount int          `json:"rating_count" db:"rating_count"`
}
