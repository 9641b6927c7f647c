package notes

// updatePlan is the outcome of applying a patch to a stored note.
type updatePlan struct {
	note    Note
	release []string
	changed bool
}

// planUpdate computes the desired state of current after patch and the media
// URLs that state no longer references. It performs no I/O.
//
// Images are removed first, then appended, then trimmed to the newest
// MaxImages. Audio is cleared by RemoveAudio and then replaced by a non-empty
// NewAudioURL. A stored URL is released exactly when the final note stops
// referencing it, so URLs that were never stored are never released.
func planUpdate(current *Note, patch UpdateNote) updatePlan {
	next := *current
	next.Images = append([]string{}, current.Images...)

	if patch.Title != nil && *patch.Title != "" {
		next.Title = *patch.Title
	}
	if patch.Content != nil && *patch.Content != "" {
		next.Content = *patch.Content
	}
	if patch.IsFavourite != nil {
		next.IsFavourite = *patch.IsFavourite
	}

	if len(patch.RemoveImageURLs) > 0 {
		drop := make(map[string]struct{}, len(patch.RemoveImageURLs))
		for _, u := range patch.RemoveImageURLs {
			drop[u] = struct{}{}
		}
		kept := next.Images[:0]
		for _, u := range next.Images {
			if _, ok := drop[u]; !ok {
				kept = append(kept, u)
			}
		}
		next.Images = kept
	}

	next.Images = dedupe(append(next.Images, patch.AddImageURLs...))
	if over := len(next.Images) - MaxImages; over > 0 {
		next.Images = append([]string{}, next.Images[over:]...)
	}

	if patch.RemoveAudio {
		next.Audio = ""
	}
	if patch.NewAudioURL != nil && *patch.NewAudioURL != "" {
		next.Audio = *patch.NewAudioURL
	}

	return updatePlan{
		note:    next,
		release: released(current, &next),
		changed: !sameContent(current, &next),
	}
}

// released lists the URLs referenced by before but not by after.
func released(before, after *Note) []string {
	keep := make(map[string]struct{}, len(after.Images)+1)
	for _, u := range after.mediaURLs() {
		keep[u] = struct{}{}
	}
	var out []string
	for _, u := range dedupe(before.mediaURLs()) {
		if _, ok := keep[u]; !ok {
			out = append(out, u)
		}
	}
	return out
}

func sameContent(a, b *Note) bool {
	if a.Title != b.Title || a.Content != b.Content || a.Audio != b.Audio || a.IsFavourite != b.IsFavourite {
		return false
	}
	if len(a.Images) != len(b.Images) {
		return false
	}
	for i := range a.Images {
		if a.Images[i] != b.Images[i] {
			return false
		}
	}
	return true
}

// dedupe drops repeated urls keeping the first occurrence.
func dedupe(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
