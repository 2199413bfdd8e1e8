package main

import (
	"errors"
	"strings"
	"testing"

	"github.com/Faultbox/biomeforge/internal/engine/population"
	"github.com/Faultbox/biomeforge/internal/engine/terrain"
	"github.com/Faultbox/biomeforge/internal/world"
)

func TestWindowTitle(t *testing.T) {
	if got := windowTitle(nil, 0); got != "biomeforge" {
		t.Errorf("nil frame title = %q", got)
	}

	deer := population.NewInstanceSet(population.Deer, 10)
	deer.Count = 4
	wolf := population.NewInstanceSet(population.Wolf, 10)
	wolf.Count = 2
	f := &world.Frame{
		MapName: "japan.png",
		Mesh:    &terrain.Mesh{},
		Instances: map[population.Category]*population.InstanceSet{
			population.Deer: deer,
			population.Wolf: wolf,
		},
	}

	if got, want := windowTitle(f, 0), "biomeforge - japan.png - 6 instances"; got != want {
		t.Errorf("title = %q, want %q", got, want)
	}
	if got := windowTitle(f, 3); !strings.Contains(got, "3 pending") {
		t.Errorf("loading title = %q", got)
	}

	f.Err = errors.New("boom")
	if got := windowTitle(f, 0); !strings.Contains(got, "[error]") {
		t.Errorf("error title = %q", got)
	}
}
