package market

import (
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	if err := Validate(USEquities()); err != nil {
		t.Fatalf("preset should validate: %v", err)
	}
	if err := Validate(Schedule{}); err != nil {
		t.Fatalf("empty schedule should validate: %v", err)
	}

	err := Validate(Schedule{
		Timezone: "Nowhere/Atlantis",
		Hours:    map[string][]string{"funday": {"10:00-11:00"}, "monday": {"bad"}},
		Holidays: []Holiday{
			{Year: 2021, Month: 2, Day: 29},
			{Year: 2021, Month: 3, Day: 1, Hours: "12:00"},
		},
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	for _, want := range []string{"Nowhere/Atlantis", "funday", `"bad"`, "2021-02-29", `"12:00"`} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q missing %q", err.Error(), want)
		}
	}
}
