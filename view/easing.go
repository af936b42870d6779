package view

import "math"

// Easing maps normalized animation time in [0, 1] to an eased position in
// [0, 1]. Every easing function satisfies f(0) = 0 and f(1) = 1 exactly;
// inputs outside [0, 1] are clamped.
type Easing func(t float64) float64

// ExpoOut decelerates exponentially toward the target.
func ExpoOut(t float64) float64 {
	if t <= 0 || t >= 1 {
		return clamp01(t)
	}
	return 1 - math.Pow(2, -10*t)
}

// ExpoIn accelerates exponentially from rest.
func ExpoIn(t float64) float64 {
	if t <= 0 || t >= 1 {
		return clamp01(t)
	}
	return math.Pow(2, 10*t-10)
}

// ElasticOut overshoots the target and settles with a damped oscillation.
func ElasticOut(t float64) float64 {
	const c4 = 2 * math.Pi / 3

	if t <= 0 || t >= 1 {
		return clamp01(t)
	}
	return math.Pow(2, -10*t)*math.Sin((t*10-0.75)*c4) + 1
}

// InOutCirc eases along a quarter circle on each half of the animation.
func InOutCirc(t float64) float64 {
	if t <= 0 || t >= 1 {
		return clamp01(t)
	}
	if t < 0.5 {
		return (1 - math.Sqrt(1-math.Pow(2*t, 2))) / 2
	}
	return (math.Sqrt(1-math.Pow(-2*t+2, 2)) + 1) / 2
}

func clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}
