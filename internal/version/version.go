package version

// Version is the current release of SERP Scout.
const Version = "1.0.0"
