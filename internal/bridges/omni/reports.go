package omni

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Human readable reports over the session caches, one line per string.
// These mirror what an installer would read off a console: system
// information, troubles, capacities, the event log and object tables.

// ReportNames lists the controller level reports SystemReport accepts.
var ReportNames = []string{
	"System Information",
	"System Troubles",
	"System Capacities",
	"Event Log",
	"Areas",
	"Zones",
	"Units",
}

// SystemReport produces a named report. Every name in ReportNames is
// accepted.
func (s *Session) SystemReport(name string) ([]string, error) {
	switch name {
	case "System Information":
		return s.systemInformationReport()
	case "System Troubles":
		return s.systemTroublesReport()
	case "System Capacities":
		return s.systemCapacitiesReport(), nil
	case "Event Log":
		return s.EventLogReport(defaultLogLimit)
	case "Areas":
		return s.AreasReport()
	case "Zones":
		return s.ZonesReport()
	case "Units":
		return s.UnitsReport()
	}
	return nil, fmt.Errorf("%w: report %q", ErrUnknownCommand, name)
}

func (s *Session) systemInformationReport() ([]string, error) {
	c := s.controller
	info := c.Information()

	var lines []string
	lines = append(lines, "Model: "+c.Model())
	lines = append(lines, "Firmware version: "+c.Firmware())
	lines = append(lines, "Phone number: "+info.Phone)

	var status SystemStatus
	err := s.request(func(conn Connector) error {
		reply, err := conn.ReqSystemStatus()
		if err != nil {
			return err
		}
		status = reply
		return nil
	})
	if err != nil {
		return nil, err
	}

	lines = append(lines, systemTimeLines(status)...)
	lines = append(lines, fmt.Sprintf("Battery reading: %d", status.BatteryReading))

	areas := "None"
	if len(status.AlarmAreas) > 0 {
		parts := make([]string, len(status.AlarmAreas))
		for i, a := range status.AlarmAreas {
			parts[i] = strconv.Itoa(a)
		}
		areas = strings.Join(parts, ", ")
	}
	lines = append(lines, "Areas in alarm: "+areas)

	formats := c.Formats()
	tempFormat := "C"
	if formats.TempFormat == 1 {
		tempFormat = "F"
	}
	timeFormat := "24 hour"
	if formats.TimeFormat == 1 {
		timeFormat = "12 hour"
	}
	dateFormat := "DDMM"
	if formats.DateFormat == 1 {
		dateFormat = "MMDD"
	}
	lines = append(lines, "Temperature Format: "+tempFormat)
	lines = append(lines, "Time Format: "+timeFormat)
	lines = append(lines, "Date Format: "+dateFormat)
	return lines, nil
}

func systemTimeLines(status SystemStatus) []string {
	if !status.TimeDateValid {
		return []string{"System Time: not set"}
	}
	// The panel reports a two digit year.
	dt := time.Date(2000+status.Year, time.Month(status.Month), status.Day,
		status.Hour, status.Minute, status.Second, 0, time.Local)
	return []string{
		"System Date: " + dt.Format("01/02/2006"),
		"System Time: " + dt.Format("15:04:05"),
		fmt.Sprintf("Daylight Savings: %t", status.DaylightSavings),
		fmt.Sprintf("Day of week: %d", status.DayOfWeek),
		fmt.Sprintf("Sunrise: %02d:%02d:00", status.SunriseHour, status.SunriseMinute),
		fmt.Sprintf("Sunset: %02d:%02d:00", status.SunsetHour, status.SunsetMinute),
	}
}

func (s *Session) systemTroublesReport() ([]string, error) {
	status, err := s.controller.FetchStatus()
	if err != nil {
		return nil, err
	}

	var active []string
	for name, present := range status.Troubles {
		if present {
			active = append(active, name)
		}
	}
	if len(active) == 0 {
		return []string{"None"}, nil
	}
	return []string{strings.Join(active, " ")}, nil
}

func (s *Session) systemCapacitiesReport() []string {
	c := s.controller
	return []string{
		fmt.Sprintf("Max zones: %d", c.Capacity(KindZone)),
		fmt.Sprintf("Max units: %d", c.Capacity(KindUnit)),
		fmt.Sprintf("Max areas: %d", c.Capacity(KindArea)),
		fmt.Sprintf("Max buttons: %d", c.Capacity(KindButton)),
		fmt.Sprintf("Max codes: %d", c.Capacity(KindCode)),
		fmt.Sprintf("Max thermostats: %d", c.Capacity(KindThermostat)),
		fmt.Sprintf("Max messages: %d", c.Capacity(KindMessage)),
		fmt.Sprintf("Max audio zones: %d", c.Capacity(KindAudioZone)),
		fmt.Sprintf("Max audio sources: %d", c.Capacity(KindAudioSource)),
	}
}

// EventLogReport renders the newest limit event log records, one line
// each.
func (s *Session) EventLogReport(limit int) ([]string, error) {
	entries, err := s.controller.EventLog(limit)
	if err != nil {
		return nil, err
	}
	flavor := s.Flavor()
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = FormatLogEntry(flavor, e)
	}
	return lines, nil
}

// AreasReport renders a table of all areas with their delays, timers,
// mode and active alarms. Status is fetched fresh for each area.
func (s *Session) AreasReport() ([]string, error) {
	numbers := s.areas.Numbers()
	if len(numbers) == 0 {
		return []string{"None"}, nil
	}
	props := s.areas.Properties()

	row := func(cols ...any) string {
		return fmt.Sprintf("%-4v  %-12v  %-6v  %-6v  %-6v  %-6v  %-21v", cols...)
	}
	lines := []string{
		row("Num", "Name", "Entry", "Exit", "Entry", "Exit", "Mode") + "Alarms",
		row("", "", "Delay", "Delay", "Timer", "Timer", ""),
	}
	for _, num := range numbers {
		ap := props[num]
		st, err := s.areas.FetchStatus(num)
		if err != nil {
			return nil, err
		}
		lines = append(lines,
			row(num, ap.Name, ap.EntryDelay, ap.ExitDelay,
				st.EntryTimer, st.ExitTimer, st.Mode)+strings.Join(st.Alarms, ", "))
	}
	return lines, nil
}

// ZonesReport renders a table of all zones with their configuration
// and current status. Status is fetched fresh for each zone.
func (s *Session) ZonesReport() ([]string, error) {
	numbers := s.zones.Numbers()
	if len(numbers) == 0 {
		return []string{"None"}, nil
	}
	props := s.zones.Properties()

	row := func(cols ...any) string {
		return fmt.Sprintf("%-3v  %-15v  %-27v  %-4v  %-9v  %-4v  %-9v  %-7v  %-13v  %-11v", cols...)
	}
	lines := []string{
		row("Num", "Name", "Type", "Area", "Options", "Loop",
			"Condition", "Latched", "Arming", "Trouble"),
	}
	for _, num := range numbers {
		zp := props[num]

		options := ""
		if zp.CrossZoning {
			options += "CZ "
		}
		if zp.SwingerShutdown {
			options += "SS "
		}
		if zp.DialOutDelay {
			options += "DOD"
		}

		st, err := s.zones.FetchStatus(num)
		if err != nil {
			return nil, err
		}
		trouble := "None"
		if st.HadTrouble {
			trouble = "Had Trouble"
		}
		lines = append(lines,
			row(num, zp.Name, zp.TypeName, zp.Area, options,
				st.Loop, st.Condition, st.Latched, st.Arming, trouble))
	}
	lines = append(lines,
		"Options: CZ = Cross Zoning, SS = Swinger Shutdown, DOD = Dial Out Delay")
	return lines, nil
}

// UnitsReport renders a table of all units with their type, remaining
// command time and display status. Status is fetched fresh for each
// unit.
func (s *Session) UnitsReport() ([]string, error) {
	numbers := s.units.Numbers()
	if len(numbers) == 0 {
		return []string{"None"}, nil
	}
	props := s.units.Properties()

	row := func(cols ...any) string {
		return fmt.Sprintf("%-3v  %-12v  %-22v  %-14v  %-6v", cols...)
	}
	lines := []string{
		row("Num", "Name", "Type", "Time (seconds)", "Status"),
	}
	for _, num := range numbers {
		up := props[num]
		st, err := s.units.FetchStatus(num)
		if err != nil {
			return nil, err
		}
		lines = append(lines, row(num, up.Name, up.TypeName, st.Time, st.Text))
	}
	return lines, nil
}
