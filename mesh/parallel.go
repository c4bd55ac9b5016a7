package mesh

import (
	"runtime"
	"sync"

	"github.com/jcarlsson-aed/WarpX/utils"
)

// ParallelFor applies fn to every point of b, partitioned contiguously over
// one goroutine per CPU. Callers guarantee that concurrent applications of
// fn are write-disjoint.
func ParallelFor(b Box, fn func(iv IntVect)) {
	var (
		NP = runtime.NumCPU()
		pm = utils.NewPartitionMap(NP, b.NumPts())
		wg = sync.WaitGroup{}
	)
	for n := 0; n < NP; n++ {
		wg.Add(1)
		go func(np int) {
			kMin, kMax := pm.GetBucketRange(np)
			for k := kMin; k < kMax; k++ {
				fn(b.IntVect(k))
			}
			wg.Done()
		}(n)
	}
	wg.Wait()
}
