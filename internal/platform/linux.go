package platform

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// partitionRe matches partition suffixes so their bytes aren't
// double-counted against the parent device: sda1, nvme0n1p1, mmcblk0p1.
// Grounded on the teacher's internal/collector/disk.go partitionRe.
var partitionRe = regexp.MustCompile(`^(sd[a-z]+|hd[a-z]+|vd[a-z]+)\d+$|^(nvme\d+n\d+)p\d+$|^(mmcblk\d+)p\d+$`)

// LinuxSampler reads counters from procfs/sysfs. CPU utilization is
// computed as a delta against the previous call, per spec §4.A ("CPU
// utilisation averaged since prior call"); all other fields are read
// fresh on every call. Grounded on the procfs-parsing idiom of the
// teacher's internal/collector package (cpu.go, memory.go, disk.go,
// network.go), generalized from that package's internal two-point
// sampling (which slept inside one Collect call) to state carried
// between ticks, since the agent already ticks on its own cadence.
type LinuxSampler struct {
	procRoot string
	sysRoot  string

	mu       sync.Mutex
	prevCPU  cpuTimes
	haveCPU  bool
}

// NewLinuxSampler creates a sampler rooted at the given procfs/sysfs
// mount points (overridable for tests).
func NewLinuxSampler(procRoot, sysRoot string) *LinuxSampler {
	return &LinuxSampler{procRoot: procRoot, sysRoot: sysRoot}
}

type cpuTimes struct {
	user, nice, system, idle, iowait, irq, softirq, steal uint64
}

func (t cpuTimes) total() uint64 {
	return t.user + t.nice + t.system + t.idle + t.iowait + t.irq + t.softirq + t.steal
}

func (s *LinuxSampler) ReadCounters(now time.Time) (RawCounters, error) {
	rc := RawCounters{Now: now}

	cpu, err := s.readProcStat()
	if err != nil {
		return rc, fmt.Errorf("platform: read /proc/stat: %w", err)
	}
	rc.CPUPct = s.deltaCPUPct(cpu)

	if err := s.readMeminfo(&rc); err != nil {
		return rc, fmt.Errorf("platform: read /proc/meminfo: %w", err)
	}

	rc.ProcCount = s.countProcesses()

	readB, writeB, err := s.readDiskStats()
	if err == nil {
		rc.DiskReadBytes, rc.DiskWriteBytes = readB, writeB
	} else {
		log.Warn().Err(err).Msg("platform: disk counters unavailable this tick")
	}

	upB, downB, err := s.readNetDev()
	if err == nil {
		rc.NetUpBytes, rc.NetDownBytes = upB, downB
	} else {
		log.Warn().Err(err).Msg("platform: network counters unavailable this tick")
	}

	rc.CPUTemp = s.readCPUTemp()

	return rc, nil
}

func (s *LinuxSampler) deltaCPUPct(cur cpuTimes) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.prevCPU
	have := s.haveCPU
	s.prevCPU = cur
	s.haveCPU = true

	if !have {
		return 0
	}
	totalDelta := float64(cur.total() - prev.total())
	if totalDelta <= 0 {
		return 0
	}
	idleDelta := float64(cur.idle - prev.idle + cur.iowait - prev.iowait)
	pct := (totalDelta - idleDelta) / totalDelta * 100
	if pct < 0 {
		pct = 0
	} else if pct > 100 {
		pct = 100
	}
	return pct
}

func (s *LinuxSampler) readProcStat() (cpuTimes, error) {
	f, err := os.Open(filepath.Join(s.procRoot, "stat"))
	if err != nil {
		return cpuTimes{}, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 9 || fields[0] != "cpu" {
			continue
		}
		parse := func(idx int) uint64 {
			v, _ := strconv.ParseUint(fields[idx], 10, 64)
			return v
		}
		return cpuTimes{
			user: parse(1), nice: parse(2), system: parse(3), idle: parse(4),
			iowait: parse(5), irq: parse(6), softirq: parse(7), steal: parse(8),
		}, nil
	}
	return cpuTimes{}, fmt.Errorf("no aggregate cpu line found")
}

func (s *LinuxSampler) readMeminfo(rc *RawCounters) error {
	f, err := os.Open(filepath.Join(s.procRoot, "meminfo"))
	if err != nil {
		return err
	}
	defer f.Close()

	var total, available, swapTotal, swapFree int64
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		parts := strings.SplitN(scanner.Text(), ":", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		valStr := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(parts[1]), " kB"))
		val, _ := strconv.ParseInt(valStr, 10, 64)
		switch key {
		case "MemTotal":
			total = val
		case "MemAvailable":
			available = val
		case "SwapTotal":
			swapTotal = val
		case "SwapFree":
			swapFree = val
		}
	}
	if total > 0 {
		rc.MemPct = float64(total-available) / float64(total) * 100
	}
	if swapTotal > 0 {
		rc.SwapPct = float64(swapTotal-swapFree) / float64(swapTotal) * 100
	}
	return nil
}

func (s *LinuxSampler) countProcesses() int64 {
	entries, err := os.ReadDir(s.procRoot)
	if err != nil {
		return 0
	}
	var n int64
	for _, e := range entries {
		if _, err := strconv.Atoi(e.Name()); err == nil {
			n++
		}
	}
	return n
}

// readDiskStats sums read/write sectors (×512 bytes) across all block
// devices named in /proc/diskstats, excluding partitions so a device's
// bytes aren't double-counted against its own partitions.
func (s *LinuxSampler) readDiskStats() (readBytes, writeBytes uint64, err error) {
	f, err := os.Open(filepath.Join(s.procRoot, "diskstats"))
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 10 {
			continue
		}
		name := fields[2]
		if partitionRe.MatchString(name) {
			continue
		}
		readSectors, _ := strconv.ParseUint(fields[5], 10, 64)
		writeSectors, _ := strconv.ParseUint(fields[9], 10, 64)
		readBytes += readSectors * 512
		writeBytes += writeSectors * 512
	}
	return readBytes, writeBytes, nil
}

func (s *LinuxSampler) readNetDev() (upBytes, downBytes uint64, err error) {
	f, err := os.Open(filepath.Join(s.procRoot, "net", "dev"))
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo <= 2 {
			continue // header lines
		}
		parts := strings.SplitN(scanner.Text(), ":", 2)
		if len(parts) != 2 {
			continue
		}
		iface := strings.TrimSpace(parts[0])
		if iface == "lo" {
			continue
		}
		fields := strings.Fields(parts[1])
		if len(fields) < 9 {
			continue
		}
		rx, _ := strconv.ParseUint(fields[0], 10, 64)
		tx, _ := strconv.ParseUint(fields[8], 10, 64)
		downBytes += rx
		upBytes += tx
	}
	return upBytes, downBytes, nil
}

// readCPUTemp best-effort reads the first thermal zone; absent (nil) on
// platforms without sensor access, which is not an error per spec §4.A.
func (s *LinuxSampler) readCPUTemp() *float64 {
	matches, err := filepath.Glob(filepath.Join(s.sysRoot, "class", "thermal", "thermal_zone*", "temp"))
	if err != nil || len(matches) == 0 {
		return nil
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		return nil
	}
	milliC, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
	if err != nil {
		return nil
	}
	c := milliC / 1000
	return &c
}
