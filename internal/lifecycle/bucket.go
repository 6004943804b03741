package lifecycle

import "supplyChainTracking/models"

// BucketByStage partitions segment views into per-stage buckets. Every stage
// key is present in the result (possibly empty) so callers never index into
// a missing bucket; within a bucket, input order is preserved. The partition
// is total: each input lands in exactly one bucket.
func BucketByStage(views []models.SegmentView) map[Stage][]models.SegmentView {
	buckets := make(map[Stage][]models.SegmentView, len(Stages()))
	for _, s := range Stages() {
		buckets[s] = []models.SegmentView{}
	}
	for _, v := range views {
		s := Normalize(v.Status)
		buckets[s] = append(buckets[s], v)
	}
	return buckets
}
