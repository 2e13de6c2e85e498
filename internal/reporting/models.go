package reporting

import "time"

// Stats is the admin dashboard summary.
type Stats struct {
	Tasks       TaskStats `json:"tasks"`
	Users       UserStats `json:"users"`
	GeneratedAt time.Time `json:"generatedAt"`
}

type TaskStats struct {
	Total      int            `json:"total"`
	ByStatus   map[string]int `json:"byStatus"`
	ByPriority map[string]int `json:"byPriority"`
	Overdue    int            `json:"overdue"`
	// CompletionRate is done / total, 0 when there are no tasks.
	CompletionRate float64 `json:"completionRate"`
}

type UserStats struct {
	Total  int            `json:"total"`
	ByRole map[string]int `json:"byRole"`
}
