package version

import "strconv"

const AppName = "btclcd"

type Version struct {
	MajorNumber int64
	MinorNumber int64
	PatchNumber int64
}

// String generate a human readable Version
func (m *Version) String() string {
	return strconv.FormatInt(m.MajorNumber, 10) + "." + strconv.FormatInt(m.MinorNumber, 10) + "." + strconv.FormatInt(m.PatchNumber, 10)
}

// UserAgent is sent with every upstream http request
func (m *Version) UserAgent() string {
	return AppName + "/" + m.String()
}

var (
	AppVersion = Version{
		MajorNumber: 1,
		MinorNumber: 2,
		PatchNumber: 0,
	}
)
