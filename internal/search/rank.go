package search

import "sort"

// rank orders candidates (spec §4.4): not-banned first, then totalScore
// descending, then seeders descending, then publish date descending.
func rank(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]

		if a.Score.IsBanned != b.Score.IsBanned {
			return !a.Score.IsBanned
		}
		if a.Score.TotalScore != b.Score.TotalScore {
			return a.Score.TotalScore > b.Score.TotalScore
		}
		if a.Seeders != b.Seeders {
			return a.Seeders > b.Seeders
		}
		return a.PublishDate.After(b.PublishDate)
	})
}
