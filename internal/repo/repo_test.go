package repo_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/skaphos/stackkeeper/internal/repo"
)

// repoRoot creates a directory carrying its own .git entry, the way an
// initialised repository looks on disk.
func repoRoot() string {
	dir := GinkgoT().TempDir()
	ExpectWithOffset(1, os.Mkdir(filepath.Join(dir, ".git"), 0o755)).To(Succeed())
	return dir
}

var _ = Describe("CurrentVersion", func() {
	branchResponse := func(branch string) map[string]MockResponse {
		return map[string]MockResponse{
			"/conf:symbolic-ref --quiet --short HEAD": {Output: branch},
		}
	}

	It("strips the branch prefix", func() {
		r := repo.New("/conf", &MockRunner{Responses: branchResponse("deployment/1.2.0")}, nil)
		Expect(r.CurrentVersion(context.Background())).To(Equal("1.2.0"))
	})

	It("accepts versions containing slashes", func() {
		r := repo.New("/conf", &MockRunner{Responses: branchResponse("deployment/2024/rc1")}, nil)
		Expect(r.CurrentVersion(context.Background())).To(Equal("2024/rc1"))
	})

	It("rejects a branch outside the convention", func() {
		r := repo.New("/conf", &MockRunner{Responses: branchResponse("master")}, nil)
		_, err := r.CurrentVersion(context.Background())
		Expect(errors.Is(err, repo.ErrUnversionedBranch)).To(BeTrue())
	})

	It("rejects the bare prefix with no version", func() {
		r := repo.New("/conf", &MockRunner{Responses: branchResponse("deployment/")}, nil)
		_, err := r.CurrentVersion(context.Background())
		Expect(errors.Is(err, repo.ErrUnversionedBranch)).To(BeTrue())
	})
})

var _ = Describe("VersionBranch", func() {
	It("prepends the branch prefix", func() {
		r := repo.New("/conf", &MockRunner{}, nil)
		Expect(r.VersionBranch("1.2.0")).To(Equal("deployment/1.2.0"))
	})
})

var _ = Describe("CommitChanges", func() {
	It("is a no-op on a clean worktree", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			"/conf:status --porcelain=v1": {Output: ""},
		}}
		r := repo.New("/conf", mock, nil)
		committed, err := r.CommitChanges(context.Background(), "msg", repo.CommitOptions{})
		Expect(err).NotTo(HaveOccurred())
		Expect(committed).To(BeFalse())
		// The clean short-circuit means add and commit were never run.
		Expect(mock.Calls).To(HaveLen(1))
	})

	It("stages and commits a dirty worktree", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			"/conf:status --porcelain=v1": {Output: "?? new.txt"},
			"/conf:add --all":             {},
			"/conf:-c user.name=stackkeeper -c user.email=stackkeeper@localhost commit -m msg": {},
		}}
		r := repo.New("/conf", mock, nil)
		committed, err := r.CommitChanges(context.Background(), "msg", repo.CommitOptions{})
		Expect(err).NotTo(HaveOccurred())
		Expect(committed).To(BeTrue())
	})

	It("amends when asked to", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			"/gen:status --porcelain=v1": {Output: " M out.yml"},
			"/gen:add --all":             {},
			"/gen:-c user.name=stackkeeper -c user.email=stackkeeper@localhost commit -m msg --amend": {},
		}}
		r := repo.New("/gen", mock, nil)
		committed, err := r.CommitChanges(context.Background(), "msg", repo.CommitOptions{Amend: true})
		Expect(err).NotTo(HaveOccurred())
		Expect(committed).To(BeTrue())
	})
})

var _ = Describe("CheckoutNewBranchFromBase", func() {
	It("refuses to recreate an existing branch", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			"/conf:rev-parse --verify --quiet refs/heads/deployment/2.0.0": {Output: "abc123"},
		}}
		r := repo.New("/conf", mock, nil)
		err := r.CheckoutNewBranchFromBase(context.Background(), "master", "deployment/2.0.0")
		Expect(errors.Is(err, repo.ErrBranchExists)).To(BeTrue())
	})

	It("forks from the base branch otherwise", func() {
		mock := &MockRunner{Responses: map[string]MockResponse{
			"/conf:rev-parse --verify --quiet refs/heads/deployment/2.0.0": {Err: errors.New("exit 1")},
			"/conf:checkout -b deployment/2.0.0 master":                    {},
		}}
		r := repo.New("/conf", mock, nil)
		Expect(r.CheckoutNewBranchFromBase(context.Background(), "master", "deployment/2.0.0")).To(Succeed())
	})
})

var _ = Describe("Snapshot", func() {
	It("returns the zero snapshot for a missing directory", func() {
		r := repo.New("/does/not/exist", &MockRunner{}, nil)
		snap, err := r.Snapshot(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(snap).To(Equal(repo.Snapshot{}))
	})

	It("captures a healthy repository", func() {
		dir := repoRoot()
		mock := &MockRunner{Responses: map[string]MockResponse{
			dir + ":rev-parse --is-inside-work-tree":   {Output: "true"},
			dir + ":status --porcelain=v1":             {Output: ""},
			dir + ":rev-list --all --count":            {Output: "3"},
			dir + ":symbolic-ref --quiet --short HEAD": {Output: "deployment/1.2.0"},
		}}
		snap, err := repo.New(dir, mock, nil).Snapshot(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(snap.Exists).To(BeTrue())
		Expect(snap.Dirty).To(BeFalse())
		Expect(snap.Commits).To(Equal(3))
		Expect(snap.Version).To(Equal("1.2.0"))
		Expect(snap.VersionOK).To(BeTrue())
	})

	It("reports an out-of-convention branch as a version problem", func() {
		dir := repoRoot()
		mock := &MockRunner{Responses: map[string]MockResponse{
			dir + ":rev-parse --is-inside-work-tree":   {Output: "true"},
			dir + ":status --porcelain=v1":             {Output: ""},
			dir + ":rev-list --all --count":            {Output: "1"},
			dir + ":symbolic-ref --quiet --short HEAD": {Output: "master"},
		}}
		snap, err := repo.New(dir, mock, nil).Snapshot(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(snap.Exists).To(BeTrue())
		Expect(snap.VersionOK).To(BeFalse())
		Expect(snap.VersionProblem).To(ContainSubstring("naming convention"))
	})

	It("reports a detached HEAD as a version problem, not an error", func() {
		dir := repoRoot()
		mock := &MockRunner{Responses: map[string]MockResponse{
			dir + ":rev-parse --is-inside-work-tree":   {Output: "true"},
			dir + ":status --porcelain=v1":             {Output: ""},
			dir + ":rev-list --all --count":            {Output: "2"},
			dir + ":symbolic-ref --quiet --short HEAD": {Err: errors.New("exit 1")},
		}}
		snap, err := repo.New(dir, mock, nil).Snapshot(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(snap.VersionOK).To(BeFalse())
		Expect(snap.VersionProblem).To(ContainSubstring("cannot determine"))
	})

	It("captures dirtiness including untracked files", func() {
		dir := repoRoot()
		mock := &MockRunner{Responses: map[string]MockResponse{
			dir + ":rev-parse --is-inside-work-tree":   {Output: "true"},
			dir + ":status --porcelain=v1":             {Output: "?? stray.txt"},
			dir + ":rev-list --all --count":            {Output: "1"},
			dir + ":symbolic-ref --quiet --short HEAD": {Output: "deployment/1.2.0"},
		}}
		snap, err := repo.New(dir, mock, nil).Snapshot(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(snap.Dirty).To(BeTrue())
	})

	It("fails when the status call itself fails", func() {
		dir := repoRoot()
		mock := &MockRunner{Responses: map[string]MockResponse{
			dir + ":rev-parse --is-inside-work-tree": {Output: "true"},
			dir + ":status --porcelain=v1":           {Err: errors.New("exit 128")},
		}}
		_, err := repo.New(dir, mock, nil).Snapshot(context.Background())
		Expect(err).To(HaveOccurred())
	})
})
