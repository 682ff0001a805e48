package main

import (
	"log"
	"os"
	"runtime"
	"runtime/pprof"
)

var cpuFile *os.File

func startCPUProfile(path string) error {
	if path == "" {
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		return err
	}
	cpuFile = f
	return nil
}

// stopProfiles ends CPU profiling and writes the heap profile, if requested.
func stopProfiles() {
	if cpuFile != nil {
		pprof.StopCPUProfile()
		cpuFile.Close()
		cpuFile = nil
	}
	if memprofile == "" {
		return
	}
	f, err := os.Create(memprofile)
	if err != nil {
		log.Println("could not create memory profile:", err)
		return
	}
	defer f.Close()
	runtime.GC() // get up-to-date statistics
	if err := pprof.WriteHeapProfile(f); err != nil {
		log.Println("could not write memory profile:", err)
	}
}
