package git

import (
	"regexp"
	"strings"
)

var (
	// git@github.com:owner/repo.git
	sshRemotePattern = regexp.MustCompile(`git@github\.com:([^/]+)/([^/]+?)(?:\.git)?/?$`)
	// https://github.com/owner/repo.git, ssh://git@github.com/owner/repo
	httpsRemotePattern = regexp.MustCompile(`github\.com/([^/]+)/([^/]+?)(?:\.git)?/?$`)
)

// GitHubRepo identifies a repository on GitHub.
type GitHubRepo struct {
	Owner string
	Name  string
}

// String returns "owner/name".
func (r GitHubRepo) String() string {
	return r.Owner + "/" + r.Name
}

// ParseGitHubRemote extracts owner and repository name from a GitHub remote
// URL. It reports false for non-GitHub remotes.
func ParseGitHubRemote(url string) (GitHubRepo, bool) {
	url = strings.TrimSpace(url)
	for _, re := range []*regexp.Regexp{sshRemotePattern, httpsRemotePattern} {
		if m := re.FindStringSubmatch(url); len(m) == 3 {
			return GitHubRepo{Owner: m[1], Name: m[2]}, true
		}
	}
	return GitHubRepo{}, false
}
