package version

// Version is the current beacon release version
const Version = "0.1.0"
