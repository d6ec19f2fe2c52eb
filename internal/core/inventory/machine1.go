package inventory

import (
	"fmt"
	"path"

	"github.com/hagever/homelab-composer/internal/core/caddy"
	"github.com/hagever/homelab-composer/internal/core/compose"
	"github.com/hagever/homelab-composer/internal/core/labels"
)

// ProxyNetwork is the external network Caddy shares with proxied services.
const ProxyNetwork = "caddy"

// Machine1 builds the compose project of the main home-lab machine.
// Label indexes are allocated from alloc in service order.
func Machine1(s Settings, alloc *caddy.Allocator) (*compose.Project, error) {
	b := newBuilder(s, alloc)

	tv := LibraryPath(s, LibraryTV)
	movies := LibraryPath(s, LibraryMovies)
	downloads := LibraryPath(s, LibraryDownloads)
	git := LibraryPath(s, LibraryGit)
	audiobooks := LibraryPath(s, LibraryAudiobooks)
	podcasts := LibraryPath(s, LibraryPodcasts)
	proxied := []string{ProxyNetwork}

	b.service("watchtower", "watchtower", func(h Helpers) compose.Service {
		return compose.Service{
			Image:         "containrrr/watchtower",
			ContainerName: "watchtower",
			Environment:   compose.EnvList("DOCKER_CONFIG=/config/docker"),
			Volumes: compose.Mounts(
				bind("/var/run/docker.sock", "/var/run/docker.sock"),
				bind(h.Config, "/config"),
			),
			Command: []string{"--cleanup", "--notification-url", "/config/notification_url"},
		}
	})

	b.service("gitea", "gitea", func(h Helpers) compose.Service {
		return compose.Service{
			Image:         "gitea/gitea",
			ContainerName: "gitea",
			Networks:      proxied,
			Environment:   compose.EnvList(linuxserverEnv(s)...),
			Volumes: compose.Mounts(
				bind(git+"/gitea/conf", "/etc/gitea"),
				bind(git+"/", "/data"),
				bindRO("/etc/timezone", "/etc/timezone"),
				bindRO("/etc/localtime", "/etc/localtime"),
			),
			Labels: b.upstream("git", 3000),
			Ports:  compose.PortSpec("2222:2222"),
		}
	})

	b.service("caddy", "caddy", func(h Helpers) compose.Service {
		group := b.root()
		group.Merge(b.scoped("caddy", labels.Of(
			"request_header", `Host "localhost:2019"`,
			caddy.DirectiveReverseProxy, "http://localhost:2019",
		)))
		group.Merge(b.scoped("ha", labels.Of(caddy.DirectiveReverseProxy, HostURL(s, 8123))))
		group.Merge(b.scoped("media", labels.Of(caddy.DirectiveReverseProxy, HostURL(s, 8096))))
		group.Merge(b.scoped("esphome", labels.Of(caddy.DirectiveReverseProxy, HostURL(s, 6052))))
		group.Merge(b.scoped("upsnap", labels.Of(caddy.DirectiveReverseProxy, HostURL(s, 8090))))
		group.Merge(b.scoped("dns", labels.Of(
			caddy.DirectiveReverseProxy, HostURL(s, 8881),
			"redir", "/ /admin",
		)))

		return compose.Service{
			Image:         "ghcr.io/schniz/home-automation-cluster-caddy:main",
			EnvFile:       "./caddy/environment",
			Environment:   compose.EnvMap(labels.Of("CADDY_INGRESS_NETWORKS", ProxyNetwork)),
			ContainerName: "caddy",
			Networks:      proxied,
			Volumes: compose.Mounts(
				bind(h.Config+"/data/", "/data/caddy/"),
				bind("/var/run/docker.sock", "/var/run/docker.sock"),
			),
			Ports:  []compose.Port{compose.Publish(443), compose.Publish(80)},
			Labels: group,
		}
	})

	b.service("transmission", "transmission", func(h Helpers) compose.Service {
		return compose.Service{
			ContainerName: "transmission",
			Image:         "linuxserver/transmission",
			Networks:      proxied,
			Labels:        b.upstream("torrent", 9091),
			Environment:   compose.EnvList(linuxserverEnv(s)...),
			Volumes: compose.Mounts(
				bind(downloads, "/downloads"),
				bind(h.Config, "/config"),
			),
		}
	})

	b.service("jackett", "jackett", func(h Helpers) compose.Service {
		return compose.Service{
			Networks:      proxied,
			Labels:        b.upstream("jackett", 9117),
			Image:         "linuxserver/jackett:latest",
			ContainerName: "jackett",
			Environment:   compose.EnvList(linuxserverEnv(s)...),
			Volumes:       compose.Mounts(bind(h.Config, "/config")),
		}
	})

	b.service("sonarr", "sonarr", func(h Helpers) compose.Service {
		return compose.Service{
			Image:         "linuxserver/sonarr:latest",
			ContainerName: "sonarr",
			Networks:      proxied,
			Labels:        b.upstream("sonarr", 8989),
			Environment:   compose.EnvList(linuxserverEnv(s)...),
			Volumes: compose.Mounts(
				bind(h.Config, "/config"),
				bind(tv, "/tv"),
				bind(s.LibraryRoot, "/library_root"),
				bind(downloads, "/downloads"),
			),
		}
	})

	b.service("radarr", "radarr", func(h Helpers) compose.Service {
		return compose.Service{
			Image:         "linuxserver/radarr:latest",
			ContainerName: "radarr",
			Networks:      proxied,
			Labels:        b.upstream("radarr", 7878),
			Environment:   compose.EnvList(linuxserverEnv(s)...),
			Volumes: compose.Mounts(
				bind(h.Config, "/config"),
				bind(movies, "/movies"),
				bind(s.LibraryRoot, "/library_root"),
				bind(downloads, "/downloads"),
			),
		}
	})

	b.service("headphones", "headphones", func(h Helpers) compose.Service {
		return compose.Service{
			Image:         "lscr.io/linuxserver/headphones:latest",
			ContainerName: "headphones",
			Networks:      proxied,
			Labels:        b.upstream("headphones", 8181),
			Environment:   compose.EnvList(linuxserverEnv(s)...),
			Volumes: compose.Mounts(
				bind(h.Config, "/config"),
				bind(s.LibraryRoot+"/music", "/music"),
				bind(s.LibraryRoot, "/library_root"),
				bind(downloads, "/downloads"),
			),
		}
	})

	b.service("bazarr", "bazarr", func(h Helpers) compose.Service {
		return compose.Service{
			Image:         "linuxserver/bazarr:latest",
			ContainerName: "bazarr",
			Networks:      proxied,
			Labels:        b.upstream("bazarr", 6767),
			Environment:   compose.EnvList(linuxserverEnv(s)...),
			Volumes: compose.Mounts(
				bind(h.Config, "/config"),
				bind(movies, "/movies"),
				bind(tv, "/tv"),
				bind(s.LibraryRoot, "/library_root"),
			),
		}
	})

	b.service("jellyfin", "jellyfin", func(h Helpers) compose.Service {
		return compose.Service{
			Image:         "linuxserver/jellyfin",
			ContainerName: "jellyfin",
			NetworkMode:   "host",
			Environment:   compose.EnvList(linuxserverEnv(s)...),
			Volumes: []compose.VolumeMount{
				compose.Mount(bind(h.Config, "/config")),
				compose.Mount(bind(tv, "/data/tvshows")),
				compose.Mount(bind(movies, "/data/movies")),
				compose.Mount(bind(s.LibraryRoot, "/library_root")),
				{Type: compose.VolumeMountTypeTmpfs, Target: "/tmp-transcoding"},
			},
		}
	})

	b.service("ical_http_sensor", "ical_http_sensor", func(h Helpers) compose.Service {
		return compose.Service{
			Image:         "ghcr.io/schniz/ical_http_server:main",
			ContainerName: "ical-http-sensor",
			Environment:   compose.EnvList(tzEnv(s)),
			Networks:      proxied,
			Labels:        b.upstream("ical-sensor", 8080),
		}
	})

	b.service("tailscale", "tailscale", func(h Helpers) compose.Service {
		return compose.Service{
			Image:         "tailscale/tailscale",
			Privileged:    true,
			ContainerName: "tailscale",
			Hostname:      "homelab.vpn.hagever.com",
			NetworkMode:   "host",
			EnvFile:       "./tailscale/environment",
			Environment:   compose.EnvList(tzEnv(s)),
			Volumes: compose.Mounts(
				bind("/var/lib", "/var/lib"),
				bind("/dev/net/tun", "/dev/net/tun"),
			),
		}
	})

	b.service("filebrowser", "filebrowser", func(h Helpers) compose.Service {
		return compose.Service{
			Image:         "filebrowser/filebrowser:s6",
			ContainerName: "filebrowser",
			Networks:      proxied,
			Environment:   compose.EnvList(linuxserverEnv(s)...),
			Volumes: compose.Mounts(
				bind(path.Join(h.Config, "settings"), "/config"),
				bind(path.Join(h.Config, "db"), "/database"),
				bind(downloads, "/downloads"),
				bind(s.MediaRoot, "/srv"),
			),
			Labels: b.upstream("files", 80),
		}
	})

	b.service("mosquitto", "mosquitto", func(h Helpers) compose.Service {
		return compose.Service{
			Image:         "eclipse-mosquitto:latest",
			ContainerName: "mosquitto",
			Networks:      proxied,
			Environment:   compose.EnvList(tzEnv(s)),
			Volumes:       compose.Mounts(bind(h.Config, "/mosquitto")),
			Ports:         []compose.Port{compose.Publish(1883)},
		}
	})

	b.service("homeassistant", "homeassistant", func(h Helpers) compose.Service {
		return compose.Service{
			ContainerName: "homeassistant",
			Image:         "ghcr.io/home-assistant/home-assistant:stable",
			Environment:   compose.EnvList(tzEnv(s)),
			Volumes: compose.Mounts(
				bind(s.MediaRoot+"/homeassistant-config", "/config"),
				bindRO("/etc/localtime", "/etc/localtime"),
				bindRO("/run/dbus", "/run/dbus"),
				bind(s.LibraryRoot, "/library"),
			),
			Privileged:  true,
			NetworkMode: "host",
		}
	})

	b.service("esphome", "esphome", func(h Helpers) compose.Service {
		return compose.Service{
			ContainerName: "esphome",
			Image:         "ghcr.io/esphome/esphome",
			Volumes: compose.Mounts(
				bind(h.Config, "/config"),
				bindRO("/etc/localtime", "/etc/localtime"),
			),
			Environment: compose.EnvList(
				tzEnv(s),
				"ESPHOME_DASHBOARD_USE_PING=true",
				"ESPHOME_DASHBOARD_RELATIVE_URL=/",
				"ESPHOME_QUICKWIZARD=",
				"ESPHOME_IS_HA_ADDON=",
				"DISABLE_HA_AUTHENTICATION=",
			),
			NetworkMode: "host",
			Privileged:  true,
			EnvFile:     "./esphome/environment",
		}
	})

	b.service("pihole", "pihole", func(h Helpers) compose.Service {
		return compose.Service{
			ContainerName: "pihole",
			Image:         "pihole/pihole:latest",
			Ports:         compose.PortSpec("53:53/tcp", "53:53/udp", "67:67/udp", "8881:80/tcp"),
			Environment:   compose.EnvList(tzEnv(s)),
			EnvFile:       "./pihole/environment",
			Volumes: compose.Mounts(
				bind(h.Config+"/etc-pihole", "/etc/pihole"),
				bind(h.Config+"/etc-dnsmasq.d", "/etc/dnsmasq.d"),
			),
			CapAdd: []string{"NET_ADMIN"},
		}
	})

	b.service("upsnap", "upsnap", func(h Helpers) compose.Service {
		return compose.Service{
			Image: "ghcr.io/seriousm4x/upsnap:4",
			Environment: compose.EnvList(
				tzEnv(s),
				fmt.Sprintf("PUID=%d", s.PUID),
				fmt.Sprintf("PGID=%d", s.PGID),
				"UPSNAP_SCAN_RANGE="+s.ScanRange,
				"UPSNAP_PING_PRIVILEGED=true",
			),
			NetworkMode: "host",
			HealthCheck: &compose.HealthCheck{
				Test: "curl -fs http://localhost:8090/api/health || exit 1",
			},
			Volumes: compose.Mounts(bind(h.Config+"/data", "/data")),
		}
	})

	b.service("audiobookshelf", "audiobookshelf", func(h Helpers) compose.Service {
		return compose.Service{
			Image:         "ghcr.io/advplyr/audiobookshelf:latest",
			ContainerName: "audiobookshelf",
			Networks:      proxied,
			Environment:   compose.EnvList(linuxserverEnv(s)...),
			Volumes: compose.Mounts(
				bind(audiobooks, "/audiobooks"),
				bind(podcasts, "/podcasts"),
				bind(h.Config, "/config"),
				bind(h.Config+"/metadata", "/metadata"),
			),
			Labels: b.upstream("audiobooks", 80),
		}
	})

	b.service("opencode", "opencode-web", func(h Helpers) compose.Service {
		env := linuxserverEnv(s)
		env = append(env,
			"PORT=3000",
			"OPENCODE_WEB_REPOS_PATH=/repos",
			"OPENCODE_WEB_GH_SETUP_GIT=1",
		)
		return compose.Service{
			Image:         "ghcr.io/schniz/opencode-web-bun:main",
			ContainerName: "opencode-web",
			Networks:      proxied,
			Environment:   compose.EnvList(env...),
			Volumes: compose.Mounts(
				bind(h.Config+"/auth.json", "/root/.local/share/opencode/auth.json"),
				bind(h.Config+"/gh", "/root/.config/gh"),
				bind(s.LibraryRoot+"/opencode/repos", "/repos"),
				bind(s.LibraryRoot+"/opencode/share", "/root/.local/share/opencode/project"),
			),
			Labels: b.upstream("opencode", 3000),
		}
	})

	services, err := b.build()
	if err != nil {
		return nil, err
	}

	return &compose.Project{
		Version: "3",
		Networks: map[string]compose.Network{
			ProxyNetwork: {External: true},
		},
		Services: services,
	}, nil
}
