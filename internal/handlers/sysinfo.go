package handlers

import (
	"context"
	"errors"
	"fmt"
)

func (s *Set) SystemInfo(ctx context.Context, cmd string) error {
	s.voice.Say("Getting current system status.")

	info, err := s.hostInfo(ctx)
	if err != nil {
		s.log.Error("host info failed", "err", err)
		s.voice.Say("Sorry, I couldn't retrieve system details.")
		return err
	}

	cpuPct, err := s.cpuPercent(ctx)
	if err == nil && len(cpuPct) == 0 {
		err = errors.New("cpu sampling returned no values")
	}
	if err != nil {
		s.log.Error("cpu sample failed", "err", err)
		s.voice.Say("Sorry, I couldn't retrieve system details.")
		return err
	}

	vm, err := s.vmStat(ctx)
	if err != nil {
		s.log.Error("memory stats failed", "err", err)
		s.voice.Say("Sorry, I couldn't retrieve system details.")
		return err
	}

	s.voice.Say(fmt.Sprintf(
		"System: %s %s on %s. CPU at %.0f percent. Memory %.0f percent used, %.2f gigabytes free.",
		info.Platform, info.PlatformVersion, info.KernelArch,
		cpuPct[0], vm.UsedPercent, float64(vm.Available)/(1<<30)))
	return nil
}
