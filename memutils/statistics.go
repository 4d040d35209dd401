package memutils

// Statistics summarizes the usage of one or more bootstrap regions
type Statistics struct {
	// RegionCount is the number of regions summed into this object
	RegionCount int
	// AllocationCount is the number of live byte allocations
	AllocationCount int
	// RegionBytes is the total size in bytes of the regions
	RegionBytes int
	// AllocationBytes is the size of the byte sub-region, including alignment padding
	AllocationBytes int
	// PageBytes is the size of the page sub-region
	PageBytes int
}

func (s *Statistics) Clear() {
	s.RegionCount = 0
	s.AllocationCount = 0
	s.RegionBytes = 0
	s.AllocationBytes = 0
	s.PageBytes = 0
}

func (s *Statistics) AddStatistics(other *Statistics) {
	s.RegionCount += other.RegionCount
	s.AllocationCount += other.AllocationCount
	s.RegionBytes += other.RegionBytes
	s.AllocationBytes += other.AllocationBytes
	s.PageBytes += other.PageBytes
}

// UnusedBytes is the number of bytes that are in neither sub-region
func (s *Statistics) UnusedBytes() int {
	return s.RegionBytes - s.AllocationBytes - s.PageBytes
}

// DetailedStatistics extends Statistics with page accounting
type DetailedStatistics struct {
	Statistics
	PageAllocationCount int
	TotalPages          int
	UsedPages           int
	AvailablePages      int
}

func (s *DetailedStatistics) Clear() {
	s.Statistics.Clear()
	s.PageAllocationCount = 0
	s.TotalPages = 0
	s.UsedPages = 0
	s.AvailablePages = 0
}

func (s *DetailedStatistics) AddDetailedStatistics(other *DetailedStatistics) {
	s.Statistics.AddStatistics(&other.Statistics)
	s.PageAllocationCount += other.PageAllocationCount
	s.TotalPages += other.TotalPages
	s.UsedPages += other.UsedPages
	s.AvailablePages += other.AvailablePages
}
