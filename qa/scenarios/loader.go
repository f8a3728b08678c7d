// Package scenarios loads YAML day fixtures, seeds a store with them and
// checks planner outcomes against their expectations.
package scenarios

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/kilianp07/fieldsched/core/model"
	"github.com/kilianp07/fieldsched/core/store"
	"github.com/kilianp07/fieldsched/core/travel"
)

type TechnicianDef struct {
	ID          string `yaml:"id" validate:"required"`
	Name        string `yaml:"name"`
	Role        string `yaml:"role"`
	Zone        string `yaml:"zone"`
	Office      string `yaml:"office"`
	Depot       string `yaml:"depot" validate:"required"`
	Shift       string `yaml:"shift" validate:"omitempty,oneof=first second"`
	DemoCapable bool   `yaml:"demo_capable"`
}

func (t TechnicianDef) ToModel() model.Technician {
	shift := model.Shift(t.Shift)
	if shift == "" {
		shift = model.ShiftFirst
	}
	name := t.Name
	if name == "" {
		name = t.ID
	}
	return model.Technician{
		ID:          model.TechnicianID(t.ID),
		Name:        name,
		Role:        t.Role,
		Zone:        t.Zone,
		Office:      t.Office,
		Depot:       t.Depot,
		Shift:       shift,
		DemoCapable: t.DemoCapable,
	}
}

type JobDef struct {
	ID              string  `yaml:"id" validate:"required"`
	Customer        string  `yaml:"customer"`
	Address         string  `yaml:"address" validate:"required"`
	DurationHours   float64 `yaml:"duration_hours" validate:"gte=0"`
	Window          string  `yaml:"window" validate:"required"`
	Type            string  `yaml:"type"`
	Zone            string  `yaml:"zone"`
	Office          string  `yaml:"office"`
	NeedsSecondTech bool    `yaml:"needs_second_tech"`
	DemoTech        string  `yaml:"demo_tech"`
	// AssignedTech and Start describe a day that was already planned.
	AssignedTech     string `yaml:"assigned_tech"`
	AssignedDemoTech string `yaml:"assigned_demo_tech"`
	Start            string `yaml:"start"`
}

// ToModel parses the window ("08:00-12:00") and the optional start.
func (j JobDef) ToModel() (model.Job, error) {
	from, to, ok := strings.Cut(j.Window, "-")
	if !ok {
		return model.Job{}, fmt.Errorf("job %s: window %q is not HH:MM-HH:MM", j.ID, j.Window)
	}
	w, err := model.ParseWindow(strings.TrimSpace(from), strings.TrimSpace(to))
	if err != nil {
		return model.Job{}, fmt.Errorf("job %s: %w", j.ID, err)
	}
	job := model.Job{
		ID:              model.JobID(j.ID),
		Customer:        j.Customer,
		Address:         j.Address,
		DurationHours:   j.DurationHours,
		Window:          w,
		Type:            j.Type,
		Zone:            j.Zone,
		Office:          j.Office,
		NeedsSecondTech: j.NeedsSecondTech,
		DemoTech:        j.DemoTech,
		Status:          model.JobUnassigned,
	}
	if j.AssignedDemoTech != "" {
		job.AssignedDemoTech = model.TechnicianRef(model.TechnicianID(j.AssignedDemoTech))
	}
	if j.AssignedTech != "" {
		job.AssignTo(model.TechnicianID(j.AssignedTech))
	}
	if j.Start != "" {
		start, err := model.ParseClock(j.Start)
		if err != nil {
			return model.Job{}, fmt.Errorf("job %s: start: %w", j.ID, err)
		}
		end := start.Add(job.DurationMinutes())
		job.Start, job.End = &start, &end
	}
	return job, nil
}

type DriveDef struct {
	From    string `yaml:"from" validate:"required"`
	To      string `yaml:"to" validate:"required"`
	Minutes int    `yaml:"minutes" validate:"gte=0"`
}

type ActionDef struct {
	Action     string `yaml:"action" validate:"required,oneof=plan fill resequence"`
	AutoFix    bool   `yaml:"auto_fix"`
	Technician string `yaml:"technician" validate:"required_if=Action resequence"`
}

type Scenario struct {
	Name         string            `yaml:"name" validate:"required"`
	Description  string            `yaml:"description,omitempty"`
	Date         string            `yaml:"date" validate:"required"`
	DriveMinutes int               `yaml:"drive_minutes" validate:"gte=0"`
	Drives       []DriveDef        `yaml:"drives,omitempty" validate:"dive"`
	Technicians  []TechnicianDef   `yaml:"technicians" validate:"required,dive"`
	Availability map[string]string `yaml:"availability,omitempty"`
	Jobs         []JobDef          `yaml:"jobs" validate:"dive"`
	Actions      []ActionDef       `yaml:"actions" validate:"required,dive"`
	Expected     Expected          `yaml:"expected"`
}

var validate = validator.New()

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes and validates a scenario document.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if err := validate.Struct(sc); err != nil {
		return nil, fmt.Errorf("scenario %q: %w", sc.Name, err)
	}
	if _, err := sc.Day(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Day returns the planned date.
func (sc *Scenario) Day() (time.Time, error) {
	return store.ParseDay(sc.Date)
}

// Provider returns a static travel provider for the fixture's drives.
func (sc *Scenario) Provider() *travel.StaticProvider {
	p := travel.NewStaticProvider(sc.DriveMinutes)
	for _, d := range sc.Drives {
		p.SetDrive(d.From, d.To, d.Minutes)
	}
	return p
}

// Seed writes the roster, availability, jobs and any pre-planned routes.
func (sc *Scenario) Seed(ctx context.Context, st store.Store) error {
	day, err := sc.Day()
	if err != nil {
		return err
	}
	techs := make([]model.Technician, len(sc.Technicians))
	for i, t := range sc.Technicians {
		techs[i] = t.ToModel()
	}
	if err := st.SaveTechnicians(ctx, techs); err != nil {
		return fmt.Errorf("seed technicians: %w", err)
	}
	if len(sc.Availability) > 0 {
		avail := model.Availability{}
		for id, s := range sc.Availability {
			avail[model.TechnicianID(id)] = model.Status(s)
		}
		if err := st.SetAvailability(ctx, day, avail); err != nil {
			return fmt.Errorf("seed availability: %w", err)
		}
	}

	jobs := make([]model.Job, 0, len(sc.Jobs))
	routes := model.RouteMap{}
	for _, def := range sc.Jobs {
		j, err := def.ToModel()
		if err != nil {
			return err
		}
		jobs = append(jobs, j)
		if j.AssignedTech != nil {
			r := routes[*j.AssignedTech]
			r.TechnicianID = *j.AssignedTech
			r.Jobs = append(r.Jobs, j.Clone())
			routes[*j.AssignedTech] = r
		}
	}
	if err := st.SaveJobs(ctx, day, jobs); err != nil {
		return fmt.Errorf("seed jobs: %w", err)
	}
	if len(routes) > 0 {
		if err := st.SaveRoutes(ctx, day, routes.Slice()); err != nil {
			return fmt.Errorf("seed routes: %w", err)
		}
	}
	return nil
}
