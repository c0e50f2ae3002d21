package gomonetdb

// MonetDBGoDriverVersion is the version of Go MonetDB Driver
const MonetDBGoDriverVersion = "0.1.0"
