package market

// CNAShares is the Shanghai/Shenzhen continuous auction schedule:
// 09:30-11:30 and 13:00-15:00 Asia/Shanghai on weekdays. Exchange holidays
// are not included.
func CNAShares() Schedule {
	return weekdaySchedule("Asia/Shanghai", "09:30-11:30", "13:00-15:00")
}

// USEquities is the NYSE/Nasdaq regular session, 09:30-16:00 America/New_York.
func USEquities() Schedule {
	return weekdaySchedule("America/New_York", "09:30-16:00")
}

// Preset returns a named built-in schedule.
func Preset(name string) (Schedule, bool) {
	switch name {
	case "cn_a_shares":
		return CNAShares(), true
	case "us_equities":
		return USEquities(), true
	}
	return Schedule{}, false
}

func weekdaySchedule(tz string, spans ...string) Schedule {
	hours := make(map[string][]string, 5)
	for _, d := range []string{"monday", "tuesday", "wednesday", "thursday", "friday"} {
		hours[d] = append([]string(nil), spans...)
	}
	return Schedule{Timezone: tz, Hours: hours}
}
