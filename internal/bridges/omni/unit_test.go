package omni

import (
	"errors"
	"testing"
)

func TestUnitFetchStatus(t *testing.T) {
	sim := newTestSimulator()
	sess := connectTestSession(t, sim)

	sim.PushStatus(KindUnit, StatusRecord{Number: 1, Status: 175})
	st, err := sess.Units().FetchStatus(1)
	if err != nil {
		t.Fatalf("FetchStatus() unexpected error: %v", err)
	}
	if st.Level != 75 || !st.On {
		t.Errorf("state = %+v, want on at 75", st)
	}
}

func TestUnitFetchStatusDispatches(t *testing.T) {
	sim := newTestSimulator()
	sess := connectTestSession(t, sim)

	rec := &eventRecorder{}
	sess.Subscribe(rec.record)

	if _, err := sess.Units().FetchStatus(1); err != nil {
		t.Fatalf("FetchStatus() unexpected error: %v", err)
	}

	// The fetched status flows through the dispatcher like a pushed
	// notification.
	waitFor(t, "fetched status event", func() bool { return rec.len() == 1 })
	ev := rec.snapshot()[0]
	if ev.Type != EventStatus || ev.Kind != KindUnit || ev.Number != 1 {
		t.Errorf("unexpected event %+v", ev)
	}
}

func TestUnitFetchStatusNotDefined(t *testing.T) {
	sess := connectTestSession(t, newTestSimulator())

	_, err := sess.Units().FetchStatus(99)
	if !IsNotDefined(err) {
		t.Errorf("FetchStatus(99) error = %v, want not defined", err)
	}
}

func TestUnitProperties(t *testing.T) {
	sess := connectTestSession(t, newTestSimulator())

	props := sess.Units().Properties()
	light, ok := props[1]
	if !ok {
		t.Fatal("unit 1 not enumerated")
	}
	if light.TypeName != "Standard Control" || !light.Dimmable {
		t.Errorf("unit 1 props = %+v", light)
	}

	flag, ok := props[2]
	if !ok {
		t.Fatal("unit 2 not enumerated")
	}
	if flag.TypeName != "Omni Controller Flag" || flag.Dimmable {
		t.Errorf("unit 2 props = %+v", flag)
	}
}

func TestUnitSendCommand(t *testing.T) {
	tests := []struct {
		name      string
		command   string
		number    int
		parameter int
		want      [3]int
	}{
		{name: "on", command: "on", number: 1, want: [3]int{cmdUnitOn, 0, 1}},
		{name: "off", command: "off", number: 1, want: [3]int{cmdUnitOff, 0, 1}},
		{name: "level", command: "level", number: 1, parameter: 40, want: [3]int{cmdUnitPercent, 40, 1}},
		{name: "level clamped high", command: "level", number: 1, parameter: 150, want: [3]int{cmdUnitPercent, 100, 1}},
		{name: "zero level becomes off", command: "level", number: 1, parameter: 0, want: [3]int{cmdUnitOff, 0, 1}},
		{name: "level clamped low", command: "level", number: 1, parameter: -5, want: [3]int{cmdUnitOff, 0, 1}},
		{name: "level on relay becomes on", command: "level", number: 2, parameter: 60, want: [3]int{cmdUnitOn, 0, 2}},
		{name: "zero level on relay becomes off", command: "level", number: 2, parameter: 0, want: [3]int{cmdUnitOff, 0, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := newTestSimulator()
			sess := connectTestSession(t, sim)

			if err := sess.Units().SendCommand(tt.command, tt.number, tt.parameter); err != nil {
				t.Fatalf("SendCommand() unexpected error: %v", err)
			}
			cmds := sim.Commands()
			if len(cmds) == 0 {
				t.Fatal("no command reached the controller")
			}
			if got := cmds[len(cmds)-1]; got != tt.want {
				t.Errorf("command = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUnitSendCommandErrors(t *testing.T) {
	sess := connectTestSession(t, newTestSimulator())

	if err := sess.Units().SendCommand("toggle", 1, 0); !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("SendCommand(toggle) error = %v, want ErrUnknownCommand", err)
	}
	if err := sess.Units().SendCommand("on", 99, 0); !IsNotDefined(err) {
		t.Errorf("SendCommand on unknown unit = %v, want not defined", err)
	}
}

func TestUnitCommandPushesStatus(t *testing.T) {
	sim := newTestSimulator()
	sess := connectTestSession(t, sim)

	rec := &eventRecorder{}
	sess.Subscribe(rec.record)

	if err := sess.Units().SendCommand("level", 1, 50); err != nil {
		t.Fatalf("SendCommand() unexpected error: %v", err)
	}
	sess.Update()

	waitFor(t, "echoed status", func() bool { return rec.len() == 1 })
	ev := rec.snapshot()[0]
	if ev.Unit == nil || ev.Unit.Level != 50 {
		t.Errorf("echoed state = %+v, want level 50", ev.Unit)
	}
}
