package spatial

import "github.com/couchcryptid/hazard-target-service/internal/domain"

// MatchFunc returns the directory entries a feature covers.
type MatchFunc func(f *domain.HazardFeature, dir *domain.ZipDirectory) []domain.ZipEntry

// Deduplicate merges the matches of every feature into one list with at most
// one record per zip code. Features are processed in input order and the
// first feature to claim a zip keeps the attribution.
func Deduplicate(features []*domain.HazardFeature, dir *domain.ZipDirectory, match MatchFunc) []domain.TargetRecord {
	seen := make(map[string]struct{})
	var out []domain.TargetRecord

	for _, f := range features {
		if f == nil {
			continue
		}
		for _, e := range match(f, dir) {
			if _, dup := seen[e.Zip]; dup {
				continue
			}
			seen[e.Zip] = struct{}{}
			out = append(out, domain.TargetRecord{
				Zip:           e,
				Feature:       f,
				AttributionID: f.ID,
			})
		}
	}
	return out
}
