package scale

import (
	"regexp"
	"strconv"
)

// The scale emits one message per line. Three patterns are recognized:
//
//	{real_time: weight; 72.5, height; 170}
//	{click_button: true}
//	{weight: 70.1, height; 169}
//
// Anything else is device chatter and is ignored. Some firmware emits the
// sample height separator as ':' instead of ';', so both are accepted.
var (
	realTimeRe = regexp.MustCompile(`\{real_time:\s*weight;\s*(\d+(?:\.\d+)?),\s*height;\s*(\d+(?:\.\d+)?)\}`)
	triggerRe  = regexp.MustCompile(`\{click_button:\s*true\}`)
	sampleRe   = regexp.MustCompile(`\{weight:\s*(\d+(?:\.\d+)?),\s*height[;:]\s*(\d+(?:\.\d+)?)\}`)
)

// Classify parses one telemetry line into a Reading. ok is false for
// unmatched lines and for matching lines whose numeric fields fail to
// parse; neither is an error, the stream just moves on.
func Classify(line string) (Reading, bool) {
	if m := realTimeRe.FindStringSubmatch(line); m != nil {
		return numericReading(KindRealTime, m[1], m[2])
	}
	if triggerRe.MatchString(line) {
		return Reading{Kind: KindTrigger}, true
	}
	if m := sampleRe.FindStringSubmatch(line); m != nil {
		return numericReading(KindSample, m[1], m[2])
	}
	return Reading{}, false
}

func numericReading(kind Kind, weightStr, heightStr string) (Reading, bool) {
	weight, err := strconv.ParseFloat(weightStr, 64)
	if err != nil {
		return Reading{}, false
	}
	height, err := strconv.ParseFloat(heightStr, 64)
	if err != nil {
		return Reading{}, false
	}
	return Reading{Kind: kind, Weight: weight, Height: height}, true
}
