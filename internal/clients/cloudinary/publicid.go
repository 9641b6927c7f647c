package cloudinary

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
)

// ErrNotCloudinaryURL is returned when a URL is not a delivery URL of the
// configured cloud.
var ErrNotCloudinaryURL = errors.New("not a cloudinary delivery url")

var (
	versionSegment   = regexp.MustCompile(`^v\d+$`)
	transformSegment = regexp.MustCompile(`^[a-z]{1,3}_[^/]*(,[a-z]{1,3}_[^/]*)*$`)
)

// Asset identifies a stored Cloudinary asset.
type Asset struct {
	Cloud        string
	ResourceType string
	PublicID     string
}

// ParseURL extracts the asset behind a delivery URL of the form
//
//	https://res.cloudinary.com/<cloud>/<resource_type>/upload/[<transformations>/][v<version>/]<public_id>.<ext>
//
// Folders are part of the public id. The extension is dropped except for raw
// assets, whose public id keeps it.
func ParseURL(raw string) (Asset, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Asset{}, fmt.Errorf("%w: %v", ErrNotCloudinaryURL, err)
	}
	if !strings.HasSuffix(u.Host, "cloudinary.com") {
		return Asset{}, fmt.Errorf("%w: host %q", ErrNotCloudinaryURL, u.Host)
	}

	segs := strings.Split(strings.Trim(u.EscapedPath(), "/"), "/")
	if len(segs) < 4 {
		return Asset{}, fmt.Errorf("%w: path %q too short", ErrNotCloudinaryURL, u.Path)
	}
	cloud, resourceType, deliveryType := segs[0], segs[1], segs[2]
	switch resourceType {
	case "image", "video", "raw":
	default:
		return Asset{}, fmt.Errorf("%w: resource type %q", ErrNotCloudinaryURL, resourceType)
	}
	if deliveryType != "upload" {
		return Asset{}, fmt.Errorf("%w: delivery type %q", ErrNotCloudinaryURL, deliveryType)
	}

	rest := segs[3:]
	if i := indexOf(rest, versionSegment); i >= 0 {
		rest = rest[i+1:]
	} else {
		for len(rest) > 1 && transformSegment.MatchString(rest[0]) {
			rest = rest[1:]
		}
	}
	if len(rest) == 0 || rest[len(rest)-1] == "" {
		return Asset{}, fmt.Errorf("%w: no public id in %q", ErrNotCloudinaryURL, u.Path)
	}

	publicID := strings.Join(rest, "/")
	if resourceType != "raw" {
		publicID = strings.TrimSuffix(publicID, path.Ext(publicID))
	}
	publicID, err = url.PathUnescape(publicID)
	if err != nil {
		return Asset{}, fmt.Errorf("%w: %v", ErrNotCloudinaryURL, err)
	}

	return Asset{Cloud: cloud, ResourceType: resourceType, PublicID: publicID}, nil
}

func indexOf(segs []string, re *regexp.Regexp) int {
	for i, s := range segs {
		if re.MatchString(s) {
			return i
		}
	}
	return -1
}
