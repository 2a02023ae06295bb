//go:build !nonetcdf

package main

// NetCDF output links libnetcdf; build with -tags nonetcdf to leave it out.
import _ "github.com/waveconnect/backend-go/internal/sink/netcdf"
