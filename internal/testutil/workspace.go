// Package testutil builds throwaway Rails workspaces for tests.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/tools/txtar"
)

// RailsApp is a small Rails project: two controllers (one namespaced), their views,
// two record models plus an STI subclass, a schema and a prebuilt route listing.
const RailsApp = `-- Gemfile --
source "https://rubygems.org"
gem "rails", "~> 7.1"
-- Gemfile.lock --
GEM
  remote: https://rubygems.org/
  specs:
    rails (7.1.3)
-- config/routes.rb --
Rails.application.routes.draw do
  resources :users, only: [:index, :show, :create]
  namespace :admin do
    resources :users, only: [:index]
  end
end
-- tmp/routes_file.txt --
     Prefix Verb URI Pattern               Controller#Action
      users GET  /users(.:format)          users#index
            POST /users(.:format)          users#create
       user GET  /users/:id(.:format)      users#show
admin_users GET  /admin/users(.:format)    admin/users#index
-- app/controllers/users_controller.rb --
class UsersController < ApplicationController
  def index
  end

  def show
  end

  def create
  end

  private

  def helper
  end
end
-- app/controllers/admin/users_controller.rb --
module Admin
  class UsersController < ApplicationController
    def index
    end
  end
end
-- app/views/users/index.html.erb --
<h1>Users</h1>
-- app/views/users/edit.html.erb --
<h1>Edit</h1>
-- app/views/users/show.json.jbuilder --
json.id @user.id
-- app/views/admin/users/index.html.erb --
<h1>Admin</h1>
-- app/views/widgets/index.html.erb --
<h1>Widgets</h1>
-- app/models/user.rb --
class User < ApplicationRecord
end
-- app/models/admin.rb --
class Admin < User
end
-- app/models/post.rb --
class Post < ApplicationRecord
end
-- db/schema.rb --
ActiveRecord::Schema[7.1].define(version: 2024_01_01_000000) do
  create_table "users", force: :cascade do |t|
    t.string "name"
  end

  create_table "comments", force: :cascade do |t|
  end
end
`

// WriteArchive materializes a txtar archive into a fresh temporary directory and
// returns its root
func WriteArchive(t testing.TB, archive string) string {
	t.Helper()

	root := t.TempDir()
	for _, file := range txtar.Parse([]byte(archive)).Files {
		path := filepath.Join(root, filepath.FromSlash(file.Name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, file.Data, 0644))
	}
	return root
}

// ReadFile returns the contents of a workspace file
func ReadFile(t testing.TB, root, rel string) string {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

// Runner is a scripted route enumeration command
type Runner struct {
	Stdout string
	Stderr string
	Err    error

	mu    sync.Mutex
	calls int
}

// Run implements routes.Runner
func (r *Runner) Run(_ context.Context, _ string, _ []string) ([]byte, []byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return []byte(r.Stdout), []byte(r.Stderr), r.Err
}

// Calls returns how many times the command ran
func (r *Runner) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}
