package client

import (
	"context"

	"github.com/iliyamo/astra-care/internal/model"
)

// Simulator generates server-side demo readings.
type Simulator interface {
	Simulate(ctx context.Context, subject string, days int) (model.SimulationResult, error)
}

// Demo is the "generate demo data" action.
type Demo struct {
	api  Simulator
	sync *Synchronizer
	rep  *Reporter
}

func NewDemo(api Simulator, s *Synchronizer, rep *Reporter) *Demo {
	return &Demo{api: api, sync: s, rep: rep}
}

// Generate asks for days of readings and requests an immediate resync.
func (d *Demo) Generate(ctx context.Context, days int) (int, error) {
	subject := d.sync.Subject()
	if subject == "" {
		return 0, ErrNoSubject
	}
	res, err := d.api.Simulate(ctx, subject, days)
	if err != nil {
		d.rep.Report(SeverityError, "demo.generate", err, "subject", subject)
		return 0, err
	}
	d.sync.Refresh()
	return res.RecordsCreated, nil
}
