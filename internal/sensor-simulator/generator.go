package sensor_simulator

import (
	"math"
	"math/rand"
	"sync"

	"github.com/LeonardoBeccarini/esp32_smart_system/internal/model"
)

// ====== Tunables ======
const (
	adcMax = 4095 // ESP32 12-bit ADC

	// pull towards the ambient temperature per step
	ambientPull = 0.1
	// max cooling per step with the fan at full speed
	fanCooling = 0.5
	// LED light reaching the brightness sensor per PWM unit
	ledGain = 4

	motionProbability = 0.05
	minTemp, maxTemp  = -20.0, 60.0
)

// DataGenerator simulates the board sensors. Its state drifts step by step and
// reacts to the last control commands it was given.
type DataGenerator struct {
	mu      sync.Mutex
	rnd     *rand.Rand
	ambient float64
	temp    float64
	light   int // ambient light, without the LED
	fanPot  int
	control model.ControlState
}

// NewDataGenerator starts at the ambient temperature. The seed makes runs reproducible.
func NewDataGenerator(ambient float64, seed int64) *DataGenerator {
	rnd := rand.New(rand.NewSource(seed))
	return &DataGenerator{
		rnd:     rnd,
		ambient: ambient,
		temp:    ambient,
		light:   rnd.Intn(adcMax + 1),
		fanPot:  rnd.Intn(adcMax + 1),
	}
}

// ApplyControl feeds the commands pulled from the hub back into the simulation.
func (g *DataGenerator) ApplyControl(c model.ControlState) {
	g.mu.Lock()
	g.control = c.Clamped()
	g.mu.Unlock()
}

// Next advances the simulation by one step.
func (g *DataGenerator) Next() model.SensorSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.temp += (g.ambient-g.temp)*ambientPull + g.rnd.NormFloat64()*0.2
	if g.control.Fan {
		g.temp -= fanCooling * float64(g.control.FanSpeed) / model.LevelMax
	}
	g.temp = math.Max(minTemp, math.Min(maxTemp, g.temp))

	g.light = walk(g.rnd, g.light, 60)
	g.fanPot = walk(g.rnd, g.fanPot, 40)

	brightness := g.light
	if g.control.LED {
		brightness = min(adcMax, brightness+g.control.AnalogOutput*ledGain)
	}

	return model.SensorSnapshot{
		AnalogInput: brightness,
		Button:      g.rnd.Float64() < motionProbability,
		Temperature: math.Round(g.temp*10) / 10,
		FanPot:      g.fanPot,
	}
}

// walk moves v by at most step, staying within the ADC range.
func walk(rnd *rand.Rand, v, step int) int {
	v += rnd.Intn(2*step+1) - step
	return max(0, min(adcMax, v))
}
