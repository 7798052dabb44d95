package surface

// surfaceVertexShader displaces each vertex by its heightmap texel and
// rebuilds the normal from the four neighbours, clamped at the edges.
const surfaceVertexShader = `#version 410 core
layout(location = 0) in vec2 aCell;

uniform mat4 uModelView;
uniform mat4 uProjection;
uniform mat3 uNormalMatrix;
uniform vec2 uBounds;
uniform vec2 uCellScale;
uniform int uSize;
uniform sampler2D uHeightmap;

out vec3 vViewPos;
out vec3 vNormal;

float heightAt(ivec2 c) {
    c = clamp(c, ivec2(0), ivec2(uSize - 1));
    return texelFetch(uHeightmap, c, 0).r;
}

void main() {
    ivec2 cell = ivec2(aCell);
    vec2 uv = aCell / float(uSize - 1);
    vec3 pos = vec3((uv - 0.5) * uBounds, heightAt(cell));

    vec3 n = vec3(
        (heightAt(cell + ivec2(-1, 0)) - heightAt(cell + ivec2(1, 0))) * uCellScale.x,
        (heightAt(cell + ivec2(0, -1)) - heightAt(cell + ivec2(0, 1))) * uCellScale.y,
        1.0);

    vec4 viewPos = uModelView * vec4(pos, 1.0);
    vViewPos = viewPos.xyz;
    vNormal = normalize(uNormalMatrix * normalize(n));
    gl_Position = uProjection * viewPos;
}
`

const surfaceFragmentShader = `#version 410 core
in vec3 vViewPos;
in vec3 vNormal;

uniform vec3 uColor;
uniform float uOpacity;
uniform vec3 uSpecular;
uniform float uShininess;
uniform vec3 uLightDir;
uniform float uAmbient;

out vec4 FragColor;

void main() {
    vec3 n = normalize(vNormal);
    vec3 l = normalize(uLightDir);
    vec3 v = normalize(-vViewPos);
    float diffuse = max(dot(n, l), 0.0);
    float spec = 0.0;
    if (diffuse > 0.0) {
        spec = pow(max(dot(n, normalize(l + v)), 0.0), uShininess);
    }
    vec3 color = uColor * (uAmbient + diffuse) + uSpecular * spec;
    FragColor = vec4(color, uOpacity);
}
`
