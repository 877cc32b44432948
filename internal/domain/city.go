package domain

type City struct {
	ID   int64  `json:"city_id"`
	Name string `json:"city_name"`
}
