package stores

import (
	"github.com/rs/zerolog"

	"github.com/coursehub-dev/coursehub/internal/domain"
	"github.com/coursehub-dev/coursehub/internal/storage"
)

// Reports remembers the content the user has already reported
type Reports struct {
	p *persisted[[]domain.Report]
}

// NewReports loads the store from storage
func NewReports(st storage.Storage, logger zerolog.Logger) (*Reports, error) {
	p, err := newPersisted(storage.KeyReports, []domain.Report{}, st, logger)
	if err != nil {
		return nil, err
	}
	return &Reports{p: p}, nil
}

// Add records a filed report
func (r *Reports) Add(report domain.Report) error {
	return r.p.write(func(v *[]domain.Report) {
		*v = append(*v, report)
	})
}

// Has reports whether the target was already reported
func (r *Reports) Has(targetType, targetID string) bool {
	found := false
	r.p.read(func(v []domain.Report) {
		for _, report := range v {
			if report.TargetType == targetType && report.TargetID == targetID {
				found = true
				return
			}
		}
	})
	return found
}

// List returns a copy of every filed report
func (r *Reports) List() []domain.Report {
	var out []domain.Report
	r.p.read(func(v []domain.Report) {
		out = append([]domain.Report(nil), v...)
	})
	return out
}
