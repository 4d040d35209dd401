package main

import (
	"bufio"
	"io"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/earlyboot/allocator"
	"github.com/vkngwrapper/earlyboot/collections"
	"github.com/vkngwrapper/earlyboot/console"
	"github.com/vkngwrapper/earlyboot/early"
	"github.com/vkngwrapper/earlyboot/internal/region"
	"github.com/vkngwrapper/earlyboot/memutils"
	"golang.org/x/exp/slog"
)

type wordCopy struct {
	addr   uintptr
	layout allocator.Layout
}

func newLogger(cfg config, stderr io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if cfg.verbose {
		level = slog.LevelDebug
	}

	return slog.New(slog.HandlerOptions{Level: level}.NewTextHandler(stderr))
}

func openConsole(cfg config, stdout io.Writer) (*console.Console, func() error, error) {
	options := console.CreateOptions{Color: []byte{}}
	if cfg.color {
		options.Color = console.ColorRed
	}

	if cfg.useTTY {
		device, err := console.OpenTTY(cfg.ttyPath)
		if err != nil {
			return nil, nil, err
		}
		return console.New(device, options), device.Close, nil
	}

	out := bufio.NewWriter(stdout)
	return console.New(console.StreamDevice{Out: out}, options), out.Flush, nil
}

func run(cfg config, input io.Reader, stdout, stderr io.Writer) (err error) {
	logger := newLogger(cfg, stderr)

	mem, err := region.New(cfg.regionSize)
	if err != nil {
		return err
	}
	defer func() {
		closeErr := mem.Close()
		if err == nil {
			err = closeErr
		}
	}()

	assertions := memutils.AssertionsDefault
	if cfg.debug {
		assertions = memutils.AssertionsEnabled
	}

	alloc := early.NewAllocator(early.CreateOptions{
		PageSize:        uintptr(cfg.pageSize),
		Assertions:      assertions,
		ReservePageSpan: cfg.reservePages,
		Logger:          logger,
	})
	alloc.Init(mem.Start(), mem.Size())
	logger.Info("bootstrap region ready",
		slog.String("Start", hexAddr(alloc.Start())),
		slog.Int("Bytes", int(alloc.TotalBytes())),
		slog.Int("Pages", alloc.TotalPages()))

	symbols := collections.New()
	occurrences := swiss.NewMap[string, int](64)
	var copies []wordCopy

	scanner := bufio.NewScanner(input)
	scanner.Split(bufio.ScanWords)
	for scanner.Scan() {
		word := scanner.Bytes()
		layout := allocator.NewLayout(uintptr(len(word)), 1)

		addr, allocErr := alloc.Alloc(layout)
		if errors.Is(allocErr, memutils.ErrNoMemory) {
			logger.Warn("bootstrap region exhausted, dropping remaining input", slog.Int("Words", len(copies)))
			break
		} else if allocErr != nil {
			return allocErr
		}

		dest, bytesErr := mem.Bytes(addr, layout.Size)
		if bytesErr != nil {
			return bytesErr
		}
		copy(dest, word)
		copies = append(copies, wordCopy{addr: addr, layout: layout})

		key := string(dest)
		symbols.Insert(key, uint32(addr-alloc.Start()))
		count, _ := occurrences.Get(key)
		occurrences.Put(key, count+1)
	}
	if scanErr := scanner.Err(); scanErr != nil {
		return errors.Wrap(scanErr, "failed to read input")
	}

	var stats memutils.DetailedStatistics
	stats.Clear()
	alloc.AddDetailedStatistics(&stats)
	logger.Info("byte allocations complete",
		slog.Int("Allocations", stats.AllocationCount),
		slog.Int("Bytes", stats.AllocationBytes),
		slog.Int("Symbols", symbols.Len()))

	for _, c := range copies {
		alloc.Dealloc(c.addr, c.layout)
	}

	var pageBlocks []uintptr
	for i := 0; i < cfg.pages; i++ {
		addr, pageErr := alloc.AllocPages(1, uintptr(cfg.pageAlign))
		if errors.Is(pageErr, memutils.ErrNoMemory) {
			logger.Warn("no room for page block", slog.Int("Index", i))
			break
		} else if pageErr != nil {
			return pageErr
		}
		pageBlocks = append(pageBlocks, addr)
	}

	out, flush, err := openConsole(cfg, stdout)
	if err != nil {
		return err
	}

	report := buildReport(alloc, symbols, occurrences, pageBlocks)
	_, err = out.Write(report)
	if err == nil {
		err = out.PutByte('\n')
	}
	if err == nil {
		err = out.Reset()
	}

	flushErr := flush()
	if err != nil {
		return errors.Wrap(err, "failed to write report")
	}
	return flushErr
}

func buildReport(alloc *early.Allocator, symbols *collections.HashMap, occurrences *swiss.Map[string, int], pageBlocks []uintptr) []byte {
	writer := jwriter.NewWriter()
	obj := writer.Object()

	regionObj := obj.Name("Region").Object()
	alloc.AllocatorJsonData(regionObj)
	regionObj.End()

	symbolArr := obj.Name("Symbols").Array()
	it := symbols.Iter()
	for it.Next() {
		count, _ := occurrences.Get(it.Key())

		symbolObj := symbolArr.Object()
		symbolObj.Name("Word").String(it.Key())
		symbolObj.Name("Offset").Int(int(it.Value()))
		symbolObj.Name("Count").Int(count)
		symbolObj.End()
	}
	symbolArr.End()

	pageArr := obj.Name("PageBlocks").Array()
	for _, addr := range pageBlocks {
		pageArr.String(hexAddr(addr))
	}
	pageArr.End()

	obj.End()
	return writer.Bytes()
}

func hexAddr(addr uintptr) string {
	return "0x" + strconv.FormatUint(uint64(addr), 16)
}
