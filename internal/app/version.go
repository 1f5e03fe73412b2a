package app

// Build-time variables set via -ldflags. For example:
//
//	go build -ldflags "-X github.com/muhammadaliwebase/BMICalculator.New/internal/app.Version=v1.0.0"
var (
	Version   = "dev"
	GoVersion = "unknown"
	BuiltAt   = "unknown"
)
