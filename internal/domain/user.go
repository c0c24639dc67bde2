package domain

import (
	"time"
	"unicode"
)

type User struct {
	ID           int64
	Username     string
	PasswordHash string
	FullName     string
	Role         string // admin|staff
	CreatedAt    time.Time
}

type Guest struct {
	ID       int64
	FullName string
	Email    string
	Phone    string
	Document string
}

// Initials returns up to two uppercase initials for calendar display.
func (g Guest) Initials() string {
	initials := make([]rune, 0, 2)
	prevSpace := true
	for _, r := range g.FullName {
		if unicode.IsSpace(r) {
			prevSpace = true
			continue
		}
		if prevSpace && len(initials) < 2 {
			initials = append(initials, unicode.ToUpper(r))
		}
		prevSpace = false
	}
	return string(initials)
}
