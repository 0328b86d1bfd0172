package usecase

import (
	"errors"

	"github.com/allertrack/backend/internal/domain"
)

// LocalQuery is the settlement state of the local database lookup
type LocalQuery struct {
	Settled bool
	Match   *domain.LocalMatch
	Err     error
}

// CatalogQuery is the settlement state of the external catalogue lookup
type CatalogQuery struct {
	Settled bool
	Product *domain.CatalogProduct
	Err     error
}

// Arbitrate decides the outcome of a barcode resolution from the state of both
// lookups. It waits for both to settle, so the result never depends on which
// one finished first. A local match always wins.
func Arbitrate(local LocalQuery, external CatalogQuery) domain.Outcome {
	if !local.Settled || !external.Settled {
		return domain.Outcome{Kind: domain.OutcomePending}
	}

	if local.Match != nil {
		return domain.Outcome{Kind: domain.OutcomeFoundLocal, Local: local.Match}
	}

	// Without a usable local answer, offering catalogue data could lead to a duplicate record.
	if local.Err != nil {
		return domain.Outcome{Kind: domain.OutcomeFailed, Err: local.Err}
	}

	if external.Err == nil && !external.Product.IsEmpty() {
		return domain.Outcome{Kind: domain.OutcomeFoundExternal, Product: external.Product}
	}

	if external.Err == nil || errors.Is(external.Err, domain.ErrProductNotFound) {
		return domain.Outcome{Kind: domain.OutcomeNotFound}
	}

	return domain.Outcome{Kind: domain.OutcomeFailed, Err: external.Err}
}
