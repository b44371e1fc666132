package empire

import "github.com/castevet/empire-core/internal/models"

// Aggregate folds the bonus maps of every active officer into one
// additive total per bonus key. Inactive officers contribute nothing.
// Addition is commutative so the result is independent of roster order;
// keys that sum to zero are dropped so the result never carries noise.
func Aggregate(officers []*models.Officer) map[models.BonusKey]int {
	total := make(map[models.BonusKey]int)
	for _, o := range officers {
		if o == nil || !o.Active {
			continue
		}
		for k, v := range o.BaseBonuses {
			total[k] += v
		}
	}
	for k, v := range total {
		if v == 0 {
			delete(total, k)
		}
	}
	return total
}
