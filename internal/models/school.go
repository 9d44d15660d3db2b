package models

import "time"

// School is an institution classes may link to.
type School struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Address   *string   `db:"address" json:"address,omitempty"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	Email     *string   `db:"email" json:"email,omitempty"`
	Website   *string   `db:"website" json:"website,omitempty"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// SchoolRequest is the create and update payload for a school.
type SchoolRequest struct {
	Name    string  `json:"name" validate:"required,min=2,max=200"`
	Address *string `json:"address" validate:"omitempty,max=500"`
	Phone   *string `json:"phone" validate:"omitempty,phone,max=50"`
	Email   *string `json:"email" validate:"omitempty,email,max=255"`
	Website *string `json:"website" validate:"omitempty,url,max=255"`
}
