package recommendations

import "time"

type Category string

const (
	CategoryGettingStarted Category = "getting_started"
	CategoryBalance        Category = "balance"
	CategoryProgression    Category = "progression"
	CategoryFrequency      Category = "frequency"
	CategoryRecovery       Category = "recovery"
	CategoryGeneral        Category = "general"
)

func (c Category) IsValid() bool {
	switch c {
	case CategoryGettingStarted, CategoryBalance, CategoryProgression, CategoryFrequency, CategoryRecovery, CategoryGeneral:
		return true
	}
	return false
}

type Recommendation struct {
	ID        int       `json:"id"`
	UserID    int       `json:"userId"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Category  Category  `json:"category"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}
