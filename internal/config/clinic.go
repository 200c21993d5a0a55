package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"clinicgrid/internal/model"
)

// CabinetConfig represents a single cabinet.
type CabinetConfig struct {
	ID       int64  `yaml:"id"`
	Name     string `yaml:"name"`
	Color    string `yaml:"color"`
	IsActive bool   `yaml:"is_active"`
}

// DoctorConfig represents a staff member that can work shifts.
type DoctorConfig struct {
	ID        int64  `yaml:"id"`
	Name      string `yaml:"name"`
	Specialty string `yaml:"specialty"`
	Role      string `yaml:"role"` // doctor, assistant, administrator
	IsActive  bool   `yaml:"is_active"`
}

// StatusConfig overrides the title or colour of a visit status.
type StatusConfig struct {
	Code  string `yaml:"code"`
	Title string `yaml:"title"`
	Color string `yaml:"color"`
}

// WorkingHoursConfig bounds the visible rows of the grid.
type WorkingHoursConfig struct {
	Start       string `yaml:"start"`        // "08:00"
	End         string `yaml:"end"`          // "21:00"
	SlotMinutes int    `yaml:"slot_minutes"` // 15
}

// HolidayConfig represents a holiday.
type HolidayConfig struct {
	Date string `yaml:"date"` // "2026-01-01"
	Name string `yaml:"name"`
}

// ClinicConfig is the root of clinic.yaml.
type ClinicConfig struct {
	Cabinets     []CabinetConfig    `yaml:"cabinets"`
	Doctors      []DoctorConfig     `yaml:"doctors"`
	Statuses     []StatusConfig     `yaml:"statuses"`
	WorkingHours WorkingHoursConfig `yaml:"working_hours"`
	Holidays     []HolidayConfig    `yaml:"holidays"`
}

var colorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// LoadClinicConfig loads and validates clinic.yaml.
func LoadClinicConfig(path string) (*ClinicConfig, error) {
	if path == "" {
		path = "configs/clinic.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read clinic config: %w", err)
	}

	return ParseClinicConfig(data)
}

// ParseClinicConfig parses and validates clinic.yaml content.
func ParseClinicConfig(data []byte) (*ClinicConfig, error) {
	var cfg ClinicConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse clinic config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate clinic config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the configuration for errors.
func (c *ClinicConfig) Validate() error {
	if len(c.Cabinets) == 0 {
		return fmt.Errorf("no cabinets defined")
	}

	ids := make(map[int64]bool)
	names := make(map[string]bool)
	for i, cab := range c.Cabinets {
		if cab.ID <= 0 {
			return fmt.Errorf("cabinet[%d]: id must be positive, got %d", i, cab.ID)
		}
		if ids[cab.ID] {
			return fmt.Errorf("cabinet[%d]: duplicate id %d", i, cab.ID)
		}
		ids[cab.ID] = true

		if cab.Name == "" {
			return fmt.Errorf("cabinet[%d]: name is required", i)
		}
		if names[cab.Name] {
			return fmt.Errorf("cabinet[%d]: duplicate name '%s'", i, cab.Name)
		}
		names[cab.Name] = true

		if cab.Color != "" && !colorRe.MatchString(cab.Color) {
			return fmt.Errorf("cabinet[%d]: invalid color '%s', expected #rrggbb", i, cab.Color)
		}
	}

	doctorIDs := make(map[int64]bool)
	for i, d := range c.Doctors {
		if d.ID <= 0 {
			return fmt.Errorf("doctor[%d]: id must be positive, got %d", i, d.ID)
		}
		if doctorIDs[d.ID] {
			return fmt.Errorf("doctor[%d]: duplicate id %d", i, d.ID)
		}
		doctorIDs[d.ID] = true
		if d.Name == "" {
			return fmt.Errorf("doctor[%d]: name is required", i)
		}
		switch model.StaffRole(d.Role) {
		case model.RoleDoctor, model.RoleAssistant, model.RoleAdministrator:
		default:
			return fmt.Errorf("doctor[%d]: unknown role '%s'", i, d.Role)
		}
	}

	for i, s := range c.Statuses {
		if !model.IsKnownStatus(model.VisitStatus(s.Code)) {
			return fmt.Errorf("statuses[%d]: unknown status '%s'", i, s.Code)
		}
		if s.Color != "" && !colorRe.MatchString(s.Color) {
			return fmt.Errorf("statuses[%d]: invalid color '%s', expected #rrggbb", i, s.Color)
		}
	}

	if err := validateHours(&c.WorkingHours); err != nil {
		return err
	}

	for i, h := range c.Holidays {
		if h.Date == "" {
			return fmt.Errorf("holiday[%d]: date is required", i)
		}
		if _, err := time.Parse(model.DateLayout, h.Date); err != nil {
			return fmt.Errorf("holiday[%d]: invalid date format '%s', expected YYYY-MM-DD", i, h.Date)
		}
	}

	return nil
}

func validateHours(h *WorkingHoursConfig) error {
	start, err := model.ParseClock(h.Start)
	if err != nil {
		return fmt.Errorf("working_hours.start: %w", err)
	}
	end, err := model.ParseClock(h.End)
	if err != nil {
		return fmt.Errorf("working_hours.end: %w", err)
	}
	if end <= start {
		return fmt.Errorf("working_hours: end must be after start")
	}
	if h.SlotMinutes <= 0 || h.SlotMinutes > 120 {
		return fmt.Errorf("working_hours.slot_minutes must be within 1..120")
	}
	return nil
}

// applyDefaults fills values left out of the file.
func (c *ClinicConfig) applyDefaults() {
	if c.WorkingHours.Start == "" {
		c.WorkingHours.Start = "08:00"
	}
	if c.WorkingHours.End == "" {
		c.WorkingHours.End = "21:00"
	}
	if c.WorkingHours.SlotMinutes == 0 {
		c.WorkingHours.SlotMinutes = 15
	}
	for i := range c.Cabinets {
		if c.Cabinets[i].Color == "" {
			c.Cabinets[i].Color = "#e0e0e0"
		}
	}
	for i := range c.Doctors {
		if c.Doctors[i].Role == "" {
			c.Doctors[i].Role = string(model.RoleDoctor)
		}
	}
}

// CabinetInfos converts cabinets to catalogue records.
func (c *ClinicConfig) CabinetInfos() []model.CabinetInfo {
	out := make([]model.CabinetInfo, 0, len(c.Cabinets))
	for _, cab := range c.Cabinets {
		out = append(out, model.CabinetInfo{ID: cab.ID, Name: cab.Name, Color: cab.Color, IsActive: cab.IsActive})
	}
	return out
}

// DoctorRecords converts doctors to catalogue records.
func (c *ClinicConfig) DoctorRecords() []model.Doctor {
	out := make([]model.Doctor, 0, len(c.Doctors))
	for _, d := range c.Doctors {
		out = append(out, model.Doctor{
			ID:        d.ID,
			Name:      d.Name,
			Specialty: d.Specialty,
			Role:      model.StaffRole(d.Role),
			IsActive:  d.IsActive,
		})
	}
	return out
}

// StatusTaxonomy merges configured overrides into the built-in statuses.
func (c *ClinicConfig) StatusTaxonomy() []model.PatientStatus {
	out := make([]model.PatientStatus, len(model.DefaultStatuses))
	copy(out, model.DefaultStatuses)
	for _, s := range c.Statuses {
		for i := range out {
			if string(out[i].Code) != s.Code {
				continue
			}
			if s.Title != "" {
				out[i].Title = s.Title
			}
			if s.Color != "" {
				out[i].Color = s.Color
			}
		}
	}
	return out
}

// GetCabinetByID returns cabinet config by ID.
func (c *ClinicConfig) GetCabinetByID(id int64) *CabinetConfig {
	for i := range c.Cabinets {
		if c.Cabinets[i].ID == id {
			return &c.Cabinets[i]
		}
	}
	return nil
}

// IsHoliday checks if a date is a holiday.
func (c *ClinicConfig) IsHoliday(date time.Time) (bool, string) {
	dateStr := date.Format(model.DateLayout)
	for _, h := range c.Holidays {
		if h.Date == dateStr {
			return true, h.Name
		}
	}
	return false, ""
}

// String returns a summary of the configuration.
func (c *ClinicConfig) String() string {
	active := 0
	for _, cab := range c.Cabinets {
		if cab.IsActive {
			active++
		}
	}
	return fmt.Sprintf("ClinicConfig: %d cabinets (%d active), %d doctors, %d holidays",
		len(c.Cabinets), active, len(c.Doctors), len(c.Holidays))
}
