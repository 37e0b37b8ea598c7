package evaluation

// EntityCounter holds span level counts of one entity class.
type EntityCounter struct {
	TP int `json:"tp"`
	FP int `json:"fp"`
	TN int `json:"tn"`
	FN int `json:"fn"`
}

// Precision is 1 when nothing was predicted.
func (c EntityCounter) Precision() float64 {
	if c.TP+c.FP == 0 {
		return 1
	}
	return float64(c.TP) / float64(c.TP+c.FP)
}

// Recall is 1 when the gold data has no entity.
func (c EntityCounter) Recall() float64 {
	if c.TP+c.FN == 0 {
		return 1
	}
	return float64(c.TP) / float64(c.TP+c.FN)
}

func (c EntityCounter) Accuracy() float64 {
	total := c.TP + c.TN + c.FP + c.FN
	if total == 0 {
		return 1
	}
	return float64(c.TP+c.TN) / float64(total)
}

func (c EntityCounter) F1() float64 {
	p, r := c.Precision(), c.Recall()
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

func (c EntityCounter) Gold() int {
	return c.TP + c.FN
}

func (c EntityCounter) Predicted() int {
	return c.TP + c.FP
}
