package robot

import (
	"context"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/kellegous/poop"

	"github.com/tamandutech/robotble"
)

type BatteryLevel string

const (
	BatteryOK      BatteryLevel = "OK"
	BatteryLow     BatteryLevel = "LOW"
	BatteryCritic  BatteryLevel = "CRITIC"
	BatteryUnknown BatteryLevel = "UNKNOWN"
)

// criticVoltage is the voltage, in mV, under which the battery is critic.
const criticVoltage = 6000

// BatterySettings are the user preferences for battery warnings.
type BatterySettings struct {
	// LowWarningThreshold is the voltage, in mV, under which the battery is
	// low.
	LowWarningThreshold float64 `mapstructure:"low_warning_threshold"`

	// LowWarningInterval is how often the battery is read.
	LowWarningInterval time.Duration `mapstructure:"low_warning_interval"`
}

var DefaultBatterySettings = BatterySettings{
	LowWarningThreshold: 6000,
	LowWarningInterval:  time.Minute,
}

// BatteryStatus is a battery reading. Voltage is in mV.
type BatteryStatus struct {
	Voltage float64   `json:"voltage"`
	Time    time.Time `json:"time"`
}

var voltagePattern = regexp.MustCompile(`(\d+\.*\d+)\w+`)

// ParseBatteryVoltage extracts the voltage from the data of a bat_voltage
// response, such as "6000mV".
func ParseBatteryVoltage(data string, now time.Time) (*BatteryStatus, error) {
	m := voltagePattern.FindStringSubmatch(data)
	if m == nil {
		return nil, robotble.RuntimeError(poop.Newf("unexpected battery reading %q", data))
	}

	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil, robotble.RuntimeError(poop.Chain(err))
	}
	return &BatteryStatus{Voltage: v, Time: now}, nil
}

// Level classifies status against the low warning threshold. A nil status has
// an unknown level.
func Level(status *BatteryStatus, lowThreshold float64) BatteryLevel {
	switch {
	case status == nil:
		return BatteryUnknown
	case status.Voltage < lowThreshold:
		return BatteryLow
	case status.Voltage < criticVoltage:
		return BatteryCritic
	}
	return BatteryOK
}

// BatteryVoltage reads the battery of the robot.
func (r *Robot) BatteryVoltage(ctx context.Context) (*BatteryStatus, error) {
	msg, err := r.Request(ctx, CommandBatteryVoltage)
	if err != nil {
		return nil, err
	}
	return ParseBatteryVoltage(msg.Data, time.Now())
}

// BatteryHistory keeps the most recent battery readings.
type BatteryHistory struct {
	lck      sync.Mutex
	size     int
	readings []BatteryStatus
}

func NewBatteryHistory(size int) *BatteryHistory {
	return &BatteryHistory{size: size}
}

func (h *BatteryHistory) Add(s BatteryStatus) {
	h.lck.Lock()
	defer h.lck.Unlock()
	h.readings = append(h.readings, s)
	if h.size > 0 && len(h.readings) > h.size {
		h.readings = h.readings[len(h.readings)-h.size:]
	}
}

// Readings returns the readings from oldest to newest.
func (h *BatteryHistory) Readings() []BatteryStatus {
	h.lck.Lock()
	defer h.lck.Unlock()
	return append([]BatteryStatus(nil), h.readings...)
}

// Last returns the most recent reading, or nil.
func (h *BatteryHistory) Last() *BatteryStatus {
	h.lck.Lock()
	defer h.lck.Unlock()
	if len(h.readings) == 0 {
		return nil
	}
	s := h.readings[len(h.readings)-1]
	return &s
}

// PollBattery reads the battery right away and then every
// settings.LowWarningInterval until ctx is done. Successful readings are added
// to history, which may be nil. fn is called after every attempt with the
// level of the last successful reading.
func (r *Robot) PollBattery(
	ctx context.Context,
	settings BatterySettings,
	history *BatteryHistory,
	fn func(status *BatteryStatus, level BatteryLevel, err error),
) error {
	if settings.LowWarningInterval <= 0 {
		settings.LowWarningInterval = DefaultBatterySettings.LowWarningInterval
	}
	if history == nil {
		history = NewBatteryHistory(1)
	}

	ticker := time.NewTicker(settings.LowWarningInterval)
	defer ticker.Stop()

	for {
		status, err := r.BatteryVoltage(ctx)
		if err == nil {
			history.Add(*status)
		}
		fn(status, Level(history.Last(), settings.LowWarningThreshold), err)

		if err := ctx.Err(); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
