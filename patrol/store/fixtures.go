package store

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"guardpatrol.com/patrol/patrol/model"
	"guardpatrol.com/patrol/security"
)

// TodayPlaceholder in a round's date is replaced with the seeding day.
const TodayPlaceholder = "today"

type fixtureFile struct {
	Posts []struct {
		ID         int32  `yaml:"id"`
		Name       string `yaml:"name"`
		Facilities string `yaml:"facilities"`
	} `yaml:"posts"`
	Routes []struct {
		ID          int32  `yaml:"id"`
		PostID      int32  `yaml:"postId"`
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
	} `yaml:"routes"`
	Checkpoints []struct {
		ID          int32    `yaml:"id"`
		RouteID     int32    `yaml:"routeId"`
		Name        string   `yaml:"name"`
		Description string   `yaml:"description"`
		Latitude    *float64 `yaml:"latitude"`
		Longitude   *float64 `yaml:"longitude"`
		Tolerance   *float64 `yaml:"tolerance"`
	} `yaml:"checkpoints"`
	Guards []struct {
		ID        int32  `yaml:"id"`
		Rut       string `yaml:"rut"`
		FirstName string `yaml:"firstName"`
		LastName  string `yaml:"lastName"`
		Password  string `yaml:"password"`
	} `yaml:"guards"`
	Supervisors []struct {
		ID       int32  `yaml:"id"`
		Rut      string `yaml:"rut"`
		Name     string `yaml:"name"`
		Password string `yaml:"password"`
	} `yaml:"supervisors"`
	Rounds []struct {
		ID            int32  `yaml:"id"`
		GuardID       int32  `yaml:"guardId"`
		RouteID       int32  `yaml:"routeId"`
		Date          string `yaml:"date"`
		ScheduledTime string `yaml:"scheduledTime"`
	} `yaml:"rounds"`
}

// Fixtures is demo data ready to insert. Passwords are already hashed.
type Fixtures struct {
	Posts       []model.Post
	Routes      []model.Route
	Checkpoints []model.Checkpoint
	Guards      []model.Guard
	Supervisors []model.Supervisor
	Rounds      []model.Round
}

func ParseFixtures(r io.Reader, today string) (*Fixtures, error) {
	var file fixtureFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}

	f := &Fixtures{}
	for _, p := range file.Posts {
		f.Posts = append(f.Posts, model.Post{ID: p.ID, Name: p.Name, Facilities: p.Facilities})
	}
	for _, r := range file.Routes {
		f.Routes = append(f.Routes, model.Route{ID: r.ID, PostID: r.PostID, Name: r.Name, Description: r.Description})
	}
	for _, c := range file.Checkpoints {
		if (c.Latitude == nil) != (c.Longitude == nil) {
			return nil, fmt.Errorf("checkpoint %s: latitude and longitude must be set together", c.Name)
		}
		f.Checkpoints = append(f.Checkpoints, model.Checkpoint{
			ID:                c.ID,
			RouteID:           c.RouteID,
			Name:              c.Name,
			Description:       c.Description,
			ExpectedLatitude:  c.Latitude,
			ExpectedLongitude: c.Longitude,
			ToleranceRadius:   c.Tolerance,
		})
	}
	for _, g := range file.Guards {
		hash, err := security.HashPassword(g.Password)
		if err != nil {
			return nil, fmt.Errorf("guard %s: %w", g.Rut, err)
		}
		f.Guards = append(f.Guards, model.Guard{ID: g.ID, Rut: g.Rut, FirstName: g.FirstName, LastName: g.LastName, PasswordHash: hash})
	}
	for _, s := range file.Supervisors {
		hash, err := security.HashPassword(s.Password)
		if err != nil {
			return nil, fmt.Errorf("supervisor %s: %w", s.Rut, err)
		}
		f.Supervisors = append(f.Supervisors, model.Supervisor{ID: s.ID, Rut: s.Rut, Name: s.Name, PasswordHash: hash})
	}
	for _, r := range file.Rounds {
		date := r.Date
		if date == TodayPlaceholder {
			date = today
		}
		f.Rounds = append(f.Rounds, model.Round{
			ID:            r.ID,
			GuardID:       r.GuardID,
			RouteID:       r.RouteID,
			Date:          date,
			ScheduledTime: r.ScheduledTime,
			Status:        model.RoundPending,
		})
	}
	return f, nil
}

// Seed inserts fixtures in one transaction. Rows whose key already exists
// are left alone, so seeding twice is harmless.
func (s *Store) Seed(ctx context.Context, f *Fixtures) error {
	return s.dm.Transaction(ctx, func(tx *gorm.DB) error {
		tx = tx.Clauses(clause.OnConflict{DoNothing: true}).Session(&gorm.Session{})
		if err := createAll(tx, f.Posts); err != nil {
			return fmt.Errorf("posts: %w", err)
		}
		if err := createAll(tx, f.Routes); err != nil {
			return fmt.Errorf("routes: %w", err)
		}
		if err := createAll(tx, f.Checkpoints); err != nil {
			return fmt.Errorf("checkpoints: %w", err)
		}
		if err := createAll(tx, f.Guards); err != nil {
			return fmt.Errorf("guards: %w", err)
		}
		if err := createAll(tx, f.Supervisors); err != nil {
			return fmt.Errorf("supervisors: %w", err)
		}
		if err := createAll(tx, f.Rounds); err != nil {
			return fmt.Errorf("rounds: %w", err)
		}
		return nil
	})
}

func createAll[T any](tx *gorm.DB, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	return tx.Create(&rows).Error
}
