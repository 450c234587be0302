package scenario

type Cut struct {
	ID          string `json:"id"`
	Duration    int    `json:"duration"`
	Description string `json:"description"`
}

func TotalDuration(cuts []Cut) int {
	total := 0
	for _, c := range cuts {
		total += c.Duration
	}
	return total
}
